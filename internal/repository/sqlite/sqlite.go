// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database: it lives inside the server binary as a single file.
// No separate database server to install, configure, or manage. Perfect for:
// - Single-server deployments and local development
// - Tests (use ":memory:" for an in-memory DB)
//
// For a hosted deployment the same interfaces are implemented on Postgres in
// the sibling postgres package; the server picks one at startup.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go translation
// of the SQLite C code, so no C compiler is needed.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// BLANK IMPORT:
	// The sqlite package's init() registers itself with database/sql as a
	// driver named "sqlite". After this import, sql.Open("sqlite", ...) works.
	_ "modernc.org/sqlite"
)

// querier is the subset of *sql.DB and *sql.Tx the repositories use.
// Writing queries against it lets the same code run inside or outside a
// transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps a sql.DB connection pool and hands out the repositories.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/found.db"  → file-based database (persistent)
//   - ":memory:"       → in-memory database (great for tests, lost on close)
//
// ONE CONNECTION:
// SQLite allows a single writer at a time. With more than one pooled
// connection, two overlapping write transactions fail with "database is
// locked" instead of queueing. Capping the pool at one connection makes
// database/sql queue them for us. It also keeps ":memory:" databases
// coherent: every new connection to ":memory:" would otherwise open a
// brand-new, empty database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	// Ping verifies the connection actually works.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. Child rows in skills and
	// interests must belong to an existing profile.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Users returns the account repository.
func (db *DB) Users() *UserDB {
	return &UserDB{q: db.conn}
}

// Profiles returns the profile repository.
func (db *DB) Profiles() *ProfileDB {
	return &ProfileDB{db: db.conn, q: db.conn}
}

// Revocations returns the signed-out token store.
func (db *DB) Revocations() *RevocationDB {
	return &RevocationDB{q: db.conn}
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
//
// The profile tables mirror the hosted schema the app was first written
// against: profiles(id PK, ...), skills(profile_id FK, name),
// interests(profile_id FK, name). position is ours; it keeps display order
// stable across round trips.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER UNIQUE,
			login         TEXT NOT NULL DEFAULT '',
			avatar_url    TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			id         TEXT PRIMARY KEY,
			name       TEXT,
			role       TEXT,
			location   TEXT,
			domain     TEXT,
			avatar_url TEXT,
			email      TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating profiles table: %w", err)
	}

	// Both child tables share one shape.
	for _, table := range []string{"skills", "interests"} {
		_, err = db.conn.Exec(fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %[1]s (
				profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
				name       TEXT NOT NULL,
				position   INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_%[1]s_profile_id ON %[1]s(profile_id);
		`, table))
		if err != nil {
			return fmt.Errorf("creating %s table: %w", table, err)
		}
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS revoked_tokens (
			token_id   TEXT PRIMARY KEY,
			expires_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating revoked_tokens table: %w", err)
	}

	return nil
}
