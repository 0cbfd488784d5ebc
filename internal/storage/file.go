package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FileBackend keeps each document as a file in one directory. Writes go
// through a temp file and rename so readers never see a partial document.
type FileBackend struct {
	dir string
}

// NewFileBackend creates dir if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Path returns the file a document is stored in.
func (b *FileBackend) Path(name string) string {
	return filepath.Join(b.dir, name)
}

func (b *FileBackend) Read(name string) ([]byte, error) {
	return os.ReadFile(b.Path(name))
}

func (b *FileBackend) Write(name string, data []byte) error {
	tmp, err := os.CreateTemp(b.dir, "."+name+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), b.Path(name))
}

func (b *FileBackend) Delete(name string) error {
	return os.Remove(b.Path(name))
}

// Names only reports known documents; the data directory is often the
// working directory and holds unrelated files.
func (b *FileBackend) Names() ([]string, error) {
	var names []string
	for _, name := range Documents {
		if _, err := os.Stat(b.Path(name)); err == nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (b *FileBackend) Close() error { return nil }
