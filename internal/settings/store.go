// Package settings persists the endpoint settings saved from the UI and
// keeps the live snapshot every engine call reads.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Nomadcxx/jellybridge/internal/config"
	"github.com/Nomadcxx/jellybridge/internal/paths"
	_ "modernc.org/sqlite"
)

const snapshotKey = "snapshot"

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// Store is a flat key-value table in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the store at the default location.
func Open() (*Store, error) {
	path, err := paths.SettingsPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings path: %w", err)
	}
	return OpenPath(path)
}

// OpenPath opens or creates the store at path.
func OpenPath(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}
	return newStore(db, path)
}

// OpenInMemory opens a private in-memory store for tests.
func OpenInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory settings database: %w", err)
	}
	// each connection to :memory: is its own database
	db.SetMaxOpenConns(1)
	return newStore(db, ":memory:")
}

func newStore(db *sql.DB, path string) (*Store, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping settings database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create settings schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.path
}

// Get returns the value stored under key; ok is false when absent.
func (s *Store) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting setting %s: %w", key, err)
	}
	return nil
}

// LoadSnapshot returns the saved endpoint settings; ok is false when none
// were ever saved.
func (s *Store) LoadSnapshot(ctx context.Context) (snap config.Snapshot, ok bool, err error) {
	raw, ok, err := s.Get(ctx, snapshotKey)
	if err != nil || !ok {
		return config.Snapshot{}, ok, err
	}
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return config.Snapshot{}, false, fmt.Errorf("decoding saved settings: %w", err)
	}
	return snap, true, nil
}

func (s *Store) SaveSnapshot(ctx context.Context, snap config.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	return s.Put(ctx, snapshotKey, string(raw))
}
