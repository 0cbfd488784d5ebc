package service

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"workbench/internal/domain"
	"workbench/internal/logging"
)

const (
	maxSearchHits     = 200
	maxSearchFileSize = 1 << 20
)

// FileEntry is one row of a directory listing.
type FileEntry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	IsDir   bool      `json:"is_dir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// SearchHit is one matching line.
type SearchHit struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// FileService browses, edits, and searches plain files under the notes
// root, and keeps a list of bookmarked paths. All paths are relative to
// the root and may not escape it.
type FileService struct {
	root      string
	bookmarks domain.BookmarkStore

	mu sync.Mutex
}

func NewFileService(root string, bookmarks domain.BookmarkStore) *FileService {
	return &FileService{root: root, bookmarks: bookmarks}
}

// Root is the directory all paths are relative to.
func (s *FileService) Root() string { return s.root }

func (s *FileService) resolve(rel string) (string, error) {
	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", err
	}
	full := filepath.Join(root, filepath.FromSlash(rel))
	r, err := filepath.Rel(root, full)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q: %w", rel, ErrPathOutsideRoot)
	}
	return full, nil
}

func (s *FileService) relative(full string) string {
	root, _ := filepath.Abs(s.root)
	r, err := filepath.Rel(root, full)
	if err != nil {
		return full
	}
	return filepath.ToSlash(r)
}

// List returns the entries of directory rel, directories first.
func (s *FileService) List(rel string) ([]FileEntry, error) {
	dir, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", rel, err)
	}
	out := make([]FileEntry, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, FileEntry{
			Name:    e.Name(),
			Path:    s.relative(filepath.Join(dir, e.Name())),
			IsDir:   e.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDir != out[j].IsDir {
			return out[i].IsDir
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *FileService) Read(rel string) ([]byte, error) {
	path, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	return data, nil
}

// Save writes content to rel, creating parent directories.
func (s *FileService) Save(rel, content string) error {
	path, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save %s: %w", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("save %s: %w", rel, err)
	}
	return nil
}

// Search finds lines containing q (case-insensitive) in text files under
// the root. Hidden directories, binary files and large files are skipped.
func (s *FileService) Search(ctx context.Context, q string) ([]SearchHit, error) {
	hits := []SearchHit{}
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return hits, nil
	}
	root, err := filepath.Abs(s.root)
	if err != nil {
		return nil, err
	}

	errEnough := errors.New("enough")
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > maxSearchFileSize {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil || !utf8.Valid(data) {
			return nil
		}
		sc := bufio.NewScanner(bytes.NewReader(data))
		sc.Buffer(make([]byte, 0, 64*1024), maxSearchFileSize)
		line := 0
		for sc.Scan() {
			line++
			text := sc.Text()
			if strings.Contains(strings.ToLower(text), q) {
				hits = append(hits, SearchHit{Path: s.relative(path), Line: line, Text: strings.TrimSpace(text)})
				if len(hits) >= maxSearchHits {
					return errEnough
				}
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errEnough) {
		return nil, err
	}
	return hits, nil
}

// ── Bookmarks ──────────────────────────────────────────────

func (s *FileService) Bookmarks() []domain.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadBookmarksLocked()
}

func (s *FileService) loadBookmarksLocked() []domain.Bookmark {
	bms, err := s.bookmarks.LoadBookmarks()
	if err != nil {
		log := logging.WithComponent("files")
		log.Error().Err(err).Msg("load bookmarks")
		return []domain.Bookmark{}
	}
	return bms
}

// AddBookmark bookmarks rel once and returns the updated list.
func (s *FileService) AddBookmark(rel string) ([]domain.Bookmark, error) {
	if _, err := s.resolve(rel); err != nil {
		return nil, err
	}
	rel = filepath.ToSlash(filepath.Clean(rel))

	s.mu.Lock()
	defer s.mu.Unlock()
	bms := s.loadBookmarksLocked()
	for _, b := range bms {
		if b.Path == rel {
			return bms, nil
		}
	}
	bms = append(bms, domain.Bookmark{Name: filepath.Base(rel), Path: rel})
	s.persistBookmarksLocked(bms)
	return bms, nil
}

// DeleteBookmark removes rel and returns the updated list.
func (s *FileService) DeleteBookmark(rel string) []domain.Bookmark {
	rel = filepath.ToSlash(filepath.Clean(rel))

	s.mu.Lock()
	defer s.mu.Unlock()
	bms := s.loadBookmarksLocked()
	kept := make([]domain.Bookmark, 0, len(bms))
	for _, b := range bms {
		if b.Path != rel {
			kept = append(kept, b)
		}
	}
	s.persistBookmarksLocked(kept)
	return kept
}

func (s *FileService) persistBookmarksLocked(bms []domain.Bookmark) {
	if err := s.bookmarks.SaveBookmarks(bms); err != nil {
		log := logging.WithComponent("files")
		log.Error().Err(err).Msg("save bookmarks")
	}
}
