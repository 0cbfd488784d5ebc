package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"workbench/internal/logging"
	"workbench/internal/metrics"
	"workbench/internal/storage"
)

// backupStamp names snapshot directories; it sorts chronologically.
const backupStamp = "20060102-150405"

// BackupOptions configures snapshots of the data documents.
type BackupOptions struct {
	Schedule string // standard 5-field cron spec or descriptor such as @daily
	Dir      string
	Keep     int // snapshots to retain; <= 0 keeps all
}

// BackupService copies every stored document into a timestamped
// directory, on a cron schedule or on demand.
type BackupService struct {
	backend storage.Backend
	opts    BackupOptions
	guard   backupGuard
	now     func() time.Time
}

func NewBackupService(backend storage.Backend, opts BackupOptions) *BackupService {
	return &BackupService{backend: backend, opts: opts, now: time.Now}
}

func (s *BackupService) String() string { return "backup-scheduler" }

// RunOnce writes one snapshot and prunes old ones. It returns the
// snapshot directory.
func (s *BackupService) RunOnce(ctx context.Context) (string, error) {
	end, err := s.guard.Begin(s.opts.Dir)
	if err != nil {
		return "", err
	}
	defer end()

	dir, err := s.snapshot(ctx)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.Backups.WithLabelValues(outcome).Inc()
	if err != nil {
		return "", err
	}

	if err := s.prune(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("prune backups")
	}
	return dir, nil
}

func (s *BackupService) snapshot(ctx context.Context) (string, error) {
	names, err := s.backend.Names()
	if err != nil {
		return "", fmt.Errorf("list documents: %w", err)
	}
	dir := filepath.Join(s.opts.Dir, s.now().UTC().Format(backupStamp))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		data, err := s.backend.Read(name)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
			return "", fmt.Errorf("write %s: %w", name, err)
		}
	}
	logging.Ctx(ctx).Info().Str("dir", dir).Int("documents", len(names)).Msg("backup written")
	return dir, nil
}

// prune removes the oldest snapshot directories beyond Keep.
func (s *BackupService) prune() error {
	if s.opts.Keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(s.opts.Dir)
	if err != nil {
		return err
	}
	var snaps []string
	for _, e := range entries {
		if e.IsDir() {
			if _, err := time.Parse(backupStamp, e.Name()); err == nil {
				snaps = append(snaps, e.Name())
			}
		}
	}
	sort.Strings(snaps)
	for len(snaps) > s.opts.Keep {
		if err := os.RemoveAll(filepath.Join(s.opts.Dir, snaps[0])); err != nil {
			return err
		}
		snaps = snaps[1:]
	}
	return nil
}

// Serve runs the cron schedule until ctx is done, then waits for a
// running backup to finish.
func (s *BackupService) Serve(ctx context.Context) error {
	log := logging.WithComponent("backup")

	c := cron.New()
	_, err := c.AddFunc(s.opts.Schedule, func() {
		_, err := s.RunOnce(ctx)
		switch {
		case errors.Is(err, ErrBackupRunning):
			log.Warn().Err(err).Msg("skipping scheduled backup")
		case err != nil:
			log.Error().Err(err).Msg("scheduled backup failed")
		}
	})
	if err != nil {
		return fmt.Errorf("backup schedule %q: %w", s.opts.Schedule, err)
	}
	c.Start()
	log.Info().Str("schedule", s.opts.Schedule).Msg("backup scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()

	waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.guard.WaitAll(waitCtx)
	return ctx.Err()
}
