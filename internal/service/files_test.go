package service_test

import (
	"context"
	"errors"
	"testing"

	"workbench/internal/service"
	"workbench/internal/storage"
)

func newFileService(t *testing.T) *service.FileService {
	t.Helper()
	return service.NewFileService(t.TempDir(), storage.NewBookmarkStore(newBackend(t)))
}

// ─────────────────────────────────────────────────────────────
// FileService tests
// ─────────────────────────────────────────────────────────────

func TestFileService_SaveReadList(t *testing.T) {
	svc := newFileService(t)

	if err := svc.Save("journal/today.md", "# Today\nship it"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := svc.Save("readme.txt", "hi"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := svc.Read("journal/today.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "# Today\nship it" {
		t.Errorf("Read = %q", data)
	}

	entries, err := svc.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !entries[0].IsDir || entries[0].Name != "journal" {
		t.Errorf("expected directory first, got %+v", entries[0])
	}
	if entries[1].Path != "readme.txt" {
		t.Errorf("expected relative path readme.txt, got %q", entries[1].Path)
	}
}

func TestFileService_RejectsEscape(t *testing.T) {
	svc := newFileService(t)
	for _, p := range []string{"../secret", "a/../../b"} {
		if _, err := svc.Read(p); !errors.Is(err, service.ErrPathOutsideRoot) {
			t.Errorf("Read(%q): expected ErrPathOutsideRoot, got %v", p, err)
		}
		if err := svc.Save(p, "x"); !errors.Is(err, service.ErrPathOutsideRoot) {
			t.Errorf("Save(%q): expected ErrPathOutsideRoot, got %v", p, err)
		}
	}
}

func TestFileService_Search(t *testing.T) {
	svc := newFileService(t)
	_ = svc.Save("a.md", "alpha\nNeedle here\nomega")
	_ = svc.Save("sub/b.md", "nothing\nanother needle")
	_ = svc.Save(".hidden/c.md", "needle in hidden dir")

	hits, err := svc.Search(context.Background(), "needle")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d: %+v", len(hits), hits)
	}
	if hits[0].Path != "a.md" || hits[0].Line != 2 || hits[0].Text != "Needle here" {
		t.Errorf("unexpected first hit %+v", hits[0])
	}

	empty, err := svc.Search(context.Background(), "  ")
	if err != nil || len(empty) != 0 {
		t.Errorf("blank query: hits=%v err=%v", empty, err)
	}
}

func TestFileService_Bookmarks(t *testing.T) {
	svc := newFileService(t)

	if _, err := svc.AddBookmark("journal/today.md"); err != nil {
		t.Fatalf("AddBookmark: %v", err)
	}
	bms, _ := svc.AddBookmark("journal/today.md")
	if len(bms) != 1 {
		t.Fatalf("duplicate bookmark added: %+v", bms)
	}
	if bms[0].Name != "today.md" {
		t.Errorf("name = %q, want today.md", bms[0].Name)
	}
	if _, err := svc.AddBookmark("../etc"); !errors.Is(err, service.ErrPathOutsideRoot) {
		t.Errorf("expected ErrPathOutsideRoot, got %v", err)
	}

	bms = svc.DeleteBookmark("journal/today.md")
	if len(bms) != 0 {
		t.Errorf("expected no bookmarks, got %+v", bms)
	}
	if got := svc.Bookmarks(); len(got) != 0 {
		t.Errorf("delete not persisted: %+v", got)
	}
}
