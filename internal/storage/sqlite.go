package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBackend stores documents as rows in a local SQLite file.
type SQLiteBackend struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the SQLite file at dbPath and runs migrations.
func OpenSQLite(dbPath string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer; a single connection avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	b := &SQLiteBackend{conn: conn}
	if err := b.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			name TEXT PRIMARY KEY,
			body BLOB NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, m := range migrations {
		if _, err := b.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

func (b *SQLiteBackend) Read(name string) ([]byte, error) {
	var body []byte
	err := b.conn.QueryRow(`SELECT body FROM documents WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	return body, err
}

func (b *SQLiteBackend) Write(name string, data []byte) error {
	_, err := b.conn.Exec(
		`INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		name, data, time.Now().UTC(),
	)
	return err
}

func (b *SQLiteBackend) Delete(name string) error {
	_, err := b.conn.Exec(`DELETE FROM documents WHERE name = ?`, name)
	return err
}

func (b *SQLiteBackend) Names() ([]string, error) {
	rows, err := b.conn.Query(`SELECT name FROM documents ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (b *SQLiteBackend) Close() error {
	return b.conn.Close()
}
