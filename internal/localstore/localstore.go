// Package localstore is the client's on-device key/value storage: the
// launch flag and the persisted access token live here.
//
// It is a single SQLite table rather than a JSON file so concurrent CLI
// invocations never clobber each other's writes.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Well-known keys.
const (
	KeyHasLaunched  = "hasLaunched"
	KeySessionToken = "session.token"
)

// FileName is the database file created inside the data directory.
const FileName = "device.db"

// Store is a string key/value store backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path. ":memory:" gives a
// throwaway store for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("localstore: creating directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("localstore: opening %s: %w", path, err)
	}
	// One connection: ":memory:" is per-connection, and a CLI never needs more.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		PRAGMA busy_timeout = 5000;
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("localstore: creating table: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenDir opens the store file inside dir.
func OpenDir(dir string) (*Store, error) {
	return Open(filepath.Join(dir, FileName))
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value for key. ok is false when the key is absent.
func (s *Store) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("localstore: reading %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("localstore: writing %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("localstore: deleting %s: %w", key, err)
	}
	return nil
}
