package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/found/internal/apperror"
	"github.com/sakif/found/internal/model"
	"github.com/sakif/found/internal/repository"
)

var (
	_ repository.ProfileRepository = (*ProfileDB)(nil)
	_ repository.Transactor        = (*ProfileDB)(nil)
)

// ProfileDB is the profiles table plus its skills and interests child tables.
//
// db is the pool and is nil when the ProfileDB is bound to a transaction
// (see WithinTx); q is whatever the queries run against.
type ProfileDB struct {
	db *sql.DB
	q  querier
}

// GetProfile loads the scalar columns of one profile.
func (p *ProfileDB) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	var (
		profile                               model.Profile
		name, role, location, domain, avatar sql.NullString
	)
	err := p.q.QueryRowContext(ctx,
		`SELECT id, name, role, location, domain, avatar_url, email, updated_at
		 FROM profiles WHERE id = ?`,
		id,
	).Scan(
		&profile.ID,
		&name,
		&role,
		&location,
		&domain,
		&avatar,
		&profile.Email,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("profile", id)
		}
		return nil, fmt.Errorf("sqlite: getting profile %s: %w", id, err)
	}

	profile.Name = nullableString(name)
	profile.Role = nullableString(role)
	profile.Location = nullableString(location)
	profile.Domain = nullableString(domain)
	profile.AvatarURL = nullableString(avatar)
	return &profile, nil
}

// ListTags returns one child collection ordered by position. rowid breaks
// ties so rows inserted by older clients without a position keep insertion
// order.
func (p *ProfileDB) ListTags(ctx context.Context, kind model.TagKind, profileID string) ([]string, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("sqlite: unknown tag collection %q", kind)
	}

	rows, err := p.q.QueryContext(ctx,
		fmt.Sprintf(`SELECT name FROM %s WHERE profile_id = ? ORDER BY position, rowid`, kind),
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing %s for %s: %w", kind, profileID, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s row: %w", kind, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s rows: %w", kind, err)
	}
	return names, nil
}

// UpsertProfile writes one profiles row keyed by id.
//
// INSERT ... ON CONFLICT DO UPDATE (SQLite 3.24+):
// Only the columns named in the statement are touched on conflict, which is
// exactly "update what the patch carries, leave the rest alone". The column
// list is built from a fixed whitelist (repository.PatchColumns), never from
// caller input, so the Sprintf below is safe.
func (p *ProfileDB) UpsertProfile(ctx context.Context, id, email string, patch model.ProfilePatch, updatedAt time.Time) error {
	cols := []string{"id", "email", "updated_at"}
	args := []any{id, email, updatedAt}
	for _, c := range repository.PatchColumns(patch) {
		cols = append(cols, c.Name)
		args = append(args, c.Value)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	updates := make([]string, 0, len(cols)-1)
	for _, c := range cols[1:] {
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
	}

	query := fmt.Sprintf(
		`INSERT INTO profiles (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s`,
		strings.Join(cols, ", "), placeholders, strings.Join(updates, ", "),
	)
	if _, err := p.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlite: upserting profile %s: %w", id, err)
	}
	return nil
}

// ReplaceTags is the full-replace write: delete every row of the collection,
// then insert the new names in one multi-row INSERT.
//
// The pair runs in one transaction. Two overlapping replaces of the same
// collection therefore serialise, and the survivor is one of the submitted
// sets, never their union.
func (p *ProfileDB) ReplaceTags(ctx context.Context, kind model.TagKind, profileID string, names []string) error {
	if !kind.Valid() {
		return fmt.Errorf("sqlite: unknown tag collection %q", kind)
	}

	return p.inTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE profile_id = ?`, kind), profileID,
		); err != nil {
			return fmt.Errorf("sqlite: deleting %s for %s: %w", kind, profileID, err)
		}

		if len(names) == 0 {
			return nil
		}

		values := make([]string, 0, len(names))
		args := make([]any, 0, len(names)*3)
		for i, name := range names {
			values = append(values, "(?, ?, ?)")
			args = append(args, profileID, name, i)
		}
		if _, err := q.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (profile_id, name, position) VALUES %s`, kind, strings.Join(values, ", ")),
			args...,
		); err != nil {
			return fmt.Errorf("sqlite: inserting %s for %s: %w", kind, profileID, err)
		}
		return nil
	})
}

// WithinTx runs fn against a ProfileDB bound to a single transaction.
func (p *ProfileDB) WithinTx(ctx context.Context, fn func(repo repository.ProfileRepository) error) error {
	return p.inTx(ctx, func(q querier) error {
		return fn(&ProfileDB{q: q})
	})
}

// inTx runs fn in a new transaction, or directly on the current one when this
// ProfileDB is already bound to a transaction.
func (p *ProfileDB) inTx(ctx context.Context, fn func(q querier) error) error {
	if p.db == nil {
		return fn(p.q)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	// Rollback after a successful Commit is a no-op returning sql.ErrTxDone.
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
