// Package postgres implements the repository interfaces on PostgreSQL using
// pgx's native connection pool.
//
// This is the hosted deployment path: the profile tables here are the same
// profiles / skills / interests schema the mobile client was built against,
// so an existing database can be pointed at directly. The SQLite package is
// the embedded twin for single-box installs and tests.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of *pgxpool.Pool and pgx.Tx the repositories use.
// Begin on a pgx.Tx opens a savepoint, so code written against querier nests
// safely inside an outer transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DB owns the pool and hands out the repositories.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL, verifies the connection and creates the schema
// if it is missing.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}

	pingCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	db := &DB{pool: pool}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}
	return db, nil
}

// Close releases every pooled connection.
func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

// Ping checks the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *DB) Users() *UserDB {
	return &UserDB{q: db.pool}
}

func (db *DB) Profiles() *ProfileDB {
	return &ProfileDB{q: db.pool}
}

func (db *DB) Revocations() *RevocationDB {
	return &RevocationDB{q: db.pool}
}

// schema is executed with the simple protocol (no arguments), which accepts
// several statements in one round trip.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL DEFAULT '',
	github_id     BIGINT UNIQUE,
	login         TEXT NOT NULL DEFAULT '',
	avatar_url    TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS profiles (
	id         TEXT PRIMARY KEY,
	name       TEXT,
	role       TEXT,
	location   TEXT,
	domain     TEXT,
	avatar_url TEXT,
	email      TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS skills (
	profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	position   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_skills_profile_id ON skills(profile_id);

CREATE TABLE IF NOT EXISTS interests (
	profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	position   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_interests_profile_id ON interests(profile_id);

CREATE TABLE IF NOT EXISTS revoked_tokens (
	token_id   TEXT PRIMARY KEY,
	expires_at TIMESTAMPTZ NOT NULL
);
`

func (db *DB) migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// isUniqueViolation reports SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
