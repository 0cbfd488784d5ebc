package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"workbench/internal/config"
	"workbench/internal/domain"
	"workbench/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.DataDir = dir
	cfg.Notes.Root = filepath.Join(dir, "notes")
	cfg.Backup.Dir = "backups"
	cfg.Logging.Level = "disabled"
	return cfg
}

func TestNew_CreatesKeyFileAndNotesRoot(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if _, err := os.Stat(cfg.DataPath(cfg.Secret.KeyFile)); err != nil {
		t.Errorf("expected key file to be created: %v", err)
	}
	if fi, err := os.Stat(cfg.Notes.Root); err != nil || !fi.IsDir() {
		t.Errorf("expected notes root directory, err=%v", err)
	}
}

func TestNew_ConnectionsSurviveRestart(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.connections.Save(ctx, domain.DbConnection{
		DBType:   domain.DBTypePostgres,
		Host:     "localhost:5432",
		Nickname: "pg",
		Password: "hunter2",
	})
	a.Close()

	raw, err := os.ReadFile(cfg.DataPath(storage.ConnectionsDoc))
	if err != nil {
		t.Fatalf("read connections file: %v", err)
	}
	if len(raw) == 0 || bytes.Contains(raw, []byte("hunter2")) {
		t.Error("connections file must be encrypted")
	}

	b, err := New(cfg)
	if err != nil {
		t.Fatalf("New (restart): %v", err)
	}
	defer b.Close()
	got, err := b.connections.Get("pg")
	if err != nil {
		t.Fatalf("Get after restart: %v", err)
	}
	if got.Password != "hunter2" {
		t.Errorf("password not round-tripped, got %q", got.Password)
	}
}

func TestBackup_WritesSnapshot(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	a.notes.Save(ctx, "todo", "write tests")

	dir, err := a.Backup(ctx)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, storage.NotesDoc)); err != nil {
		t.Errorf("expected notes in snapshot: %v", err)
	}
}

func TestMasterKey_PrefersConfiguredKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Secret.Key = "inline"
	key, err := masterKey(cfg)
	if err != nil || key != "inline" {
		t.Fatalf("masterKey = %q, %v", key, err)
	}

	cfg.Secret.Key = ""
	cfg.Secret.KeyFile = ""
	if _, err := masterKey(cfg); err == nil {
		t.Error("expected error without key or key file")
	}
}
