package domain

// Note is a free-form text note. Subject is unique.
type Note struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// NoteStore persists the whole note list at once.
type NoteStore interface {
	LoadNotes() ([]Note, error)
	SaveNotes(notes []Note) error
}

// Bookmark points at a file or directory under the notes root.
type Bookmark struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// BookmarkStore persists filesystem bookmarks.
type BookmarkStore interface {
	LoadBookmarks() ([]Bookmark, error)
	SaveBookmarks(bookmarks []Bookmark) error
}
