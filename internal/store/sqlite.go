package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS synced_events (
	id        TEXT PRIMARY KEY,
	synced_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore records synced identifiers in a SQLite database. The primary
// key plus INSERT OR IGNORE makes MarkSynced a single atomic
// insert-if-absent, which also keeps overlapping scheduled runs of the
// whole process from creating the same task twice.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("store database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// HasBeenSynced reports whether id has been recorded.
func (s *SQLiteStore) HasBeenSynced(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM synced_events WHERE id = ?)", id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("querying synced_events: %w", err)
	}
	return exists, nil
}

// MarkSynced records id; already-present ids are ignored.
func (s *SQLiteStore) MarkSynced(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO synced_events (id) VALUES (?)", id,
	); err != nil {
		return fmt.Errorf("inserting into synced_events: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
