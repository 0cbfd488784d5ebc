package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"io/fs"
	"sync"
	"time"

	"workbench/internal/logging"
	"workbench/internal/storage"
)

// docPoller polls the storage backend for documents changed by another
// process (for example a standalone MCP server writing to the same SQLite
// file) and runs the matching reload callback. The json backend uses the
// fsnotify watcher instead.
type docPoller struct {
	backend  storage.Backend
	reloads  map[string]func(context.Context)
	interval time.Duration

	mu   sync.Mutex
	seen map[string][sha256.Size]byte // doc name → content fingerprint
}

func newDocPoller(backend storage.Backend, reloads map[string]func(context.Context)) *docPoller {
	return &docPoller{
		backend:  backend,
		reloads:  reloads,
		interval: 2 * time.Second,
		seen:     map[string][sha256.Size]byte{},
	}
}

func (p *docPoller) String() string { return "doc-poller" }

func (p *docPoller) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.check(ctx)
	for {
		select {
		case <-ticker.C:
			p.check(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// check fingerprints each watched document. The first sighting only
// records the fingerprint; later differences trigger the reload.
func (p *docPoller) check(ctx context.Context) {
	for name, reload := range p.reloads {
		data, err := p.backend.Read(name)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			log := logging.WithComponent("doc-poller")
			log.Warn().Err(err).Str("doc", name).Msg("read document")
			continue
		}
		sum := sha256.Sum256(data)

		p.mu.Lock()
		prev, known := p.seen[name]
		p.seen[name] = sum
		p.mu.Unlock()

		if known && prev != sum {
			logging.Debug().Str("doc", name).Msg("document changed externally")
			reload(ctx)
		}
	}
}
