package storage

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/goccy/go-json"

	"workbench/internal/domain"
	"workbench/internal/secret"
)

// loadDoc decodes document name into dst. A missing document leaves dst untouched.
func loadDoc(b Backend, name string, dst any) error {
	data, err := b.Read(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func saveDoc(b Backend, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := b.Write(name, data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// ── Notes ──────────────────────────────────────────────────

type NoteStore struct{ b Backend }

func NewNoteStore(b Backend) *NoteStore { return &NoteStore{b: b} }

func (s *NoteStore) LoadNotes() ([]domain.Note, error) {
	notes := []domain.Note{}
	err := loadDoc(s.b, NotesDoc, &notes)
	return notes, err
}

func (s *NoteStore) SaveNotes(notes []domain.Note) error {
	return saveDoc(s.b, NotesDoc, notes)
}

// ── Bookmarks ──────────────────────────────────────────────

type BookmarkStore struct{ b Backend }

func NewBookmarkStore(b Backend) *BookmarkStore { return &BookmarkStore{b: b} }

func (s *BookmarkStore) LoadBookmarks() ([]domain.Bookmark, error) {
	bms := []domain.Bookmark{}
	err := loadDoc(s.b, BookmarksDoc, &bms)
	return bms, err
}

func (s *BookmarkStore) SaveBookmarks(bms []domain.Bookmark) error {
	return saveDoc(s.b, BookmarksDoc, bms)
}

// ── Saved queries ──────────────────────────────────────────

type QueryStore struct{ b Backend }

func NewQueryStore(b Backend) *QueryStore { return &QueryStore{b: b} }

func (s *QueryStore) LoadQueries() ([]domain.SavedQuery, error) {
	qs := []domain.SavedQuery{}
	err := loadDoc(s.b, QueriesDoc, &qs)
	return qs, err
}

func (s *QueryStore) SaveQueries(qs []domain.SavedQuery) error {
	return saveDoc(s.b, QueriesDoc, qs)
}

// ── Saved requests ─────────────────────────────────────────

type RequestStore struct{ b Backend }

func NewRequestStore(b Backend) *RequestStore { return &RequestStore{b: b} }

func (s *RequestStore) LoadRequests() ([]domain.SavedRequest, error) {
	rs := []domain.SavedRequest{}
	err := loadDoc(s.b, RequestsDoc, &rs)
	return rs, err
}

func (s *RequestStore) SaveRequests(rs []domain.SavedRequest) error {
	return saveDoc(s.b, RequestsDoc, rs)
}

// ── Settings ───────────────────────────────────────────────

type SettingsStore struct{ b Backend }

func NewSettingsStore(b Backend) *SettingsStore { return &SettingsStore{b: b} }

// LoadSettings returns nil, nil when nothing has been saved yet.
func (s *SettingsStore) LoadSettings() (*domain.Settings, error) {
	var st *domain.Settings
	if err := loadDoc(s.b, SettingsDoc, &st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *SettingsStore) SaveSettings(st *domain.Settings) error {
	return saveDoc(s.b, SettingsDoc, st)
}

// ── Connections ────────────────────────────────────────────

// connectionsKey is the secret key; EncryptedStore adds the ".enc" suffix.
const connectionsKey = "connections"

// ConnectionStore keeps the connection list as one encrypted secret.
type ConnectionStore struct {
	secrets secret.SecretStore
}

func NewConnectionStore(secrets secret.SecretStore) *ConnectionStore {
	return &ConnectionStore{secrets: secrets}
}

func (s *ConnectionStore) LoadConnections() ([]domain.DbConnection, error) {
	data, err := s.secrets.Get(connectionsKey)
	if err != nil {
		return nil, err
	}
	conns := []domain.DbConnection{}
	if len(data) == 0 {
		return conns, nil
	}
	if err := json.Unmarshal(data, &conns); err != nil {
		return nil, fmt.Errorf("decode connections: %w", err)
	}
	for i := range conns {
		conns[i].Normalize()
	}
	return conns, nil
}

func (s *ConnectionStore) SaveConnections(conns []domain.DbConnection) error {
	data, err := json.Marshal(conns)
	if err != nil {
		return fmt.Errorf("encode connections: %w", err)
	}
	return s.secrets.Set(connectionsKey, data)
}
