package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ExportedBackupGuard is an exported alias so _test packages can test the guard.
type ExportedBackupGuard = backupGuard

// ─────────────────────────────────────────────────────────────
// backupGuard — one snapshot per backup directory at a time
// ─────────────────────────────────────────────────────────────

// backupGuard keeps a scheduled snapshot from overlapping a manual one
// (or a slow previous tick) writing into the same backup directory.
type backupGuard struct {
	mu      sync.Mutex
	running map[string]time.Time // backup dir → start time
	wg      sync.WaitGroup
	now     func() time.Time
}

// Begin claims dir. The returned end func releases it. While dir is held,
// Begin fails with ErrBackupRunning and the running snapshot's start time.
func (g *backupGuard) Begin(dir string) (end func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]time.Time)
	}
	if started, ok := g.running[dir]; ok {
		return nil, fmt.Errorf("%w: %s since %s", ErrBackupRunning, dir, started.UTC().Format(time.RFC3339))
	}
	now := time.Now
	if g.now != nil {
		now = g.now
	}
	g.running[dir] = now()
	g.wg.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.running, dir)
			g.mu.Unlock()
			g.wg.Done()
		})
	}, nil
}

// Running reports when the snapshot into dir started, if one is running.
func (g *backupGuard) Running(dir string) (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	started, ok := g.running[dir]
	return started, ok
}

// WaitAll blocks until running snapshots finish or ctx is done.
func (g *backupGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
