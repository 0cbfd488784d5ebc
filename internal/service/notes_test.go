package service_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"workbench/internal/service"
	"workbench/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// NotesService tests
// ─────────────────────────────────────────────────────────────

func TestNotesService_UpsertBySubject(t *testing.T) {
	svc := service.NewNotesService(storage.NewNoteStore(newBackend(t)), &service.MockEmitter{})
	ctx := context.Background()

	svc.Save(ctx, "todo", "first")
	if notes := svc.List(); len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}
	svc.Save(ctx, "todo", "second")
	notes := svc.List()
	if len(notes) != 1 {
		t.Fatalf("expected still 1 note, got %d", len(notes))
	}
	if notes[0].Content != "second" {
		t.Errorf("expected replaced content, got %q", notes[0].Content)
	}
}

func TestNotesService_SubjectFromContent(t *testing.T) {
	svc := service.NewNotesService(storage.NewNoteStore(newBackend(t)), &service.MockEmitter{})
	content := "  " + strings.Repeat("abcdefghij", 5) + "  "

	svc.Save(context.Background(), "", content)

	notes := svc.List()
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}
	if notes[0].Subject != "abcdefghijabcdefghijabcdefghij" {
		t.Errorf("subject = %q", notes[0].Subject)
	}
	if notes[0].Content != strings.Repeat("abcdefghij", 5) {
		t.Errorf("content should be trimmed, got %q", notes[0].Content)
	}
}

func TestNotesService_EmptyIsNoop(t *testing.T) {
	emitter := &service.MockEmitter{}
	svc := service.NewNotesService(storage.NewNoteStore(newBackend(t)), emitter)

	svc.Save(context.Background(), "  ", "\n")

	if notes := svc.List(); len(notes) != 0 {
		t.Errorf("expected no notes, got %d", len(notes))
	}
	if len(emitter.Events) != 0 {
		t.Errorf("expected no events, got %v", emitter.Names())
	}
}

func TestNotesService_DeleteByIndex(t *testing.T) {
	svc := service.NewNotesService(storage.NewNoteStore(newBackend(t)), &service.MockEmitter{})
	ctx := context.Background()
	svc.Save(ctx, "a", "1")
	svc.Save(ctx, "b", "2")

	svc.Delete(ctx, 5)
	svc.Delete(ctx, -1)
	if n := len(svc.List()); n != 2 {
		t.Fatalf("out-of-range delete changed notes: %d", n)
	}

	svc.Delete(ctx, 0)
	notes := svc.List()
	if len(notes) != 1 || notes[0].Subject != "b" {
		t.Errorf("unexpected notes %+v", notes)
	}
}

func TestNotesService_Persists(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	service.NewNotesService(storage.NewNoteStore(b), &service.MockEmitter{}).Save(ctx, "kept", "yes")

	reopened := service.NewNotesService(storage.NewNoteStore(b), &service.MockEmitter{})
	notes := reopened.List()
	if len(notes) != 1 || notes[0].Subject != "kept" {
		t.Errorf("expected persisted note, got %+v", notes)
	}
}

// ─────────────────────────────────────────────────────────────
// NotesWatcher tests
// ─────────────────────────────────────────────────────────────

func TestNotesWatcher_ReloadsOnExternalEdit(t *testing.T) {
	b := newBackend(t)
	svc := service.NewNotesService(storage.NewNoteStore(b), &service.MockEmitter{})
	svc.Save(context.Background(), "before", "x")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := service.NewNotesWatcher(b.Path(storage.NotesDoc), svc)
	w.SetDebounce(20 * time.Millisecond)
	errc := make(chan error, 1)
	go func() { errc <- w.Serve(ctx) }()

	external := []byte(`[{"subject":"edited","content":"outside"}]`)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		// The watch may not be registered yet, so keep rewriting; the gap
		// between writes is well past the debounce so each one settles.
		if err := os.WriteFile(b.Path(storage.NotesDoc), external, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		time.Sleep(250 * time.Millisecond)
		if notes := svc.List(); len(notes) == 1 && notes[0].Subject == "edited" {
			cancel()
			<-errc
			return
		}
	}
	t.Fatalf("watcher did not reload notes; have %+v", svc.List())
}
