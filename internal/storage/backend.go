package storage

import (
	"fmt"
)

// Document names. Every store reads and rewrites one whole document.
const (
	NotesDoc       = "notes.json"
	BookmarksDoc   = "fs_bookmarks.json"
	QueriesDoc     = "saved_queries.json"
	RequestsDoc    = "saved_requests.json"
	SettingsDoc    = "settings.json"
	ConnectionsDoc = "connections.enc"
)

// Documents lists every document the application writes.
var Documents = []string{NotesDoc, BookmarksDoc, QueriesDoc, RequestsDoc, SettingsDoc, ConnectionsDoc}

// Backend stores named documents as raw bytes.
// Read returns an error wrapping fs.ErrNotExist for unknown names.
type Backend interface {
	Read(name string) ([]byte, error)
	Write(name string, data []byte) error
	Delete(name string) error
	// Names lists the documents currently stored, sorted.
	Names() ([]string, error)
	Close() error
}

// Open returns the backend selected by kind ("json", "badger" or "sqlite")
// rooted at dataDir.
func Open(kind, dataDir string) (Backend, error) {
	switch kind {
	case "", "json":
		return NewFileBackend(dataDir)
	case "badger":
		return OpenBadger(dataDir + "/workbench.badger")
	case "sqlite":
		return OpenSQLite(dataDir + "/workbench.db")
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}
