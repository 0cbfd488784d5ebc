package service

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"workbench/internal/domain"
	"workbench/internal/logging"
)

// subjectFallbackLen is how many characters of content become the
// subject when none is given.
const subjectFallbackLen = 30

// NotesService keeps the note list in memory and rewrites notes.json on
// every change.
type NotesService struct {
	store   domain.NoteStore
	emitter EventEmitter

	mu     sync.Mutex
	loaded bool
	notes  []domain.Note
}

func NewNotesService(store domain.NoteStore, emitter EventEmitter) *NotesService {
	return &NotesService{store: store, emitter: emitter}
}

func (s *NotesService) ensureLoadedLocked() {
	if s.loaded {
		return
	}
	s.loaded = true
	s.reloadLocked()
}

func (s *NotesService) reloadLocked() {
	notes, err := s.store.LoadNotes()
	if err != nil {
		log := logging.WithComponent("notes")
		log.Error().Err(err).Msg("load notes")
		return
	}
	s.notes = notes
}

// List returns a copy of all notes in insertion order.
func (s *NotesService) List() []domain.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked()
	out := make([]domain.Note, len(s.notes))
	copy(out, s.notes)
	return out
}

// Save upserts a note by subject. Both fields are trimmed; an empty
// subject becomes the first characters of the content. Both empty is a no-op.
func (s *NotesService) Save(ctx context.Context, subject, content string) {
	subject = strings.TrimSpace(subject)
	content = strings.TrimSpace(content)
	if subject == "" && content == "" {
		return
	}
	if subject == "" {
		subject = defaultSubject(content)
	}

	s.mu.Lock()
	s.ensureLoadedLocked()
	replaced := false
	for i := range s.notes {
		if s.notes[i].Subject == subject {
			s.notes[i].Content = content
			replaced = true
			break
		}
	}
	if !replaced {
		s.notes = append(s.notes, domain.Note{Subject: subject, Content: content})
	}
	s.persistLocked()
	s.mu.Unlock()

	s.emitter.Emit(ctx, "notes:changed", subject)
}

func defaultSubject(content string) string {
	r := []rune(content)
	if len(r) > subjectFallbackLen {
		r = r[:subjectFallbackLen]
	}
	return strings.TrimSpace(string(r))
}

// Delete removes the note at index. Out-of-range indexes are logged and ignored.
func (s *NotesService) Delete(ctx context.Context, index int) {
	s.mu.Lock()
	s.ensureLoadedLocked()
	if index < 0 || index >= len(s.notes) {
		s.mu.Unlock()
		logging.Ctx(ctx).Warn().Int("index", index).Msg("delete note: index out of range")
		return
	}
	s.notes = append(s.notes[:index], s.notes[index+1:]...)
	s.persistLocked()
	s.mu.Unlock()

	s.emitter.Emit(ctx, "notes:changed", index)
}

// Reload re-reads the store, picking up edits made outside the app.
func (s *NotesService) Reload(ctx context.Context) {
	s.mu.Lock()
	s.loaded = true
	s.reloadLocked()
	s.mu.Unlock()
	s.emitter.Emit(ctx, "notes:reloaded", nil)
}

func (s *NotesService) persistLocked() {
	if err := s.store.SaveNotes(s.notes); err != nil {
		log := logging.WithComponent("notes")
		log.Error().Err(err).Msg("save notes")
	}
}

// ─────────────────────────────────────────────────────────────
// NotesWatcher — reloads notes.json when edited on disk
// ─────────────────────────────────────────────────────────────

// NotesWatcher watches one file and calls NotesService.Reload after
// writes settle. It runs under the supervisor.
type NotesWatcher struct {
	path     string
	notes    *NotesService
	debounce time.Duration
}

func NewNotesWatcher(path string, notes *NotesService) *NotesWatcher {
	return &NotesWatcher{path: path, notes: notes, debounce: 300 * time.Millisecond}
}

// SetDebounce changes how long writes must settle before a reload.
// Call before Serve.
func (w *NotesWatcher) SetDebounce(d time.Duration) { w.debounce = d }

func (w *NotesWatcher) String() string { return "notes-watcher" }

// Serve blocks until ctx is done. The parent directory is watched so
// atomic rename-over writes are seen.
func (w *NotesWatcher) Serve(ctx context.Context) error {
	log := logging.WithComponent("notes-watcher")

	absPath, err := filepath.Abs(w.path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return err
	}
	log.Info().Str("path", absPath).Msg("watching")

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name, _ := filepath.Abs(event.Name)
			if name != absPath {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				log.Debug().Str("path", absPath).Msg("notes file changed")
				w.notes.Reload(ctx)
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watch error")
		}
	}
}
