package app

import (
	"context"
	"path/filepath"
	"testing"

	"workbench/internal/storage"
)

func TestDocPoller_ReloadsOnExternalChange(t *testing.T) {
	b, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "workbench.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer b.Close()

	calls := 0
	p := newDocPoller(b, map[string]func(context.Context){
		storage.NotesDoc: func(context.Context) { calls++ },
	})
	ctx := context.Background()

	// First sighting of a missing document records it without reloading.
	p.check(ctx)
	if calls != 0 {
		t.Fatalf("expected no reload on first check, got %d", calls)
	}

	if err := b.Write(storage.NotesDoc, []byte(`[{"subject":"a","content":"b"}]`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	p.check(ctx)
	if calls != 1 {
		t.Fatalf("expected 1 reload after change, got %d", calls)
	}

	p.check(ctx)
	if calls != 1 {
		t.Fatalf("expected no reload without change, got %d", calls)
	}
}
