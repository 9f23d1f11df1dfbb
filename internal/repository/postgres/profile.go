package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sakif/found/internal/apperror"
	"github.com/sakif/found/internal/model"
	"github.com/sakif/found/internal/repository"
)

var (
	_ repository.ProfileRepository = (*ProfileDB)(nil)
	_ repository.Transactor        = (*ProfileDB)(nil)
)

// ProfileDB is the profiles table and its skills / interests child tables.
type ProfileDB struct {
	q querier
}

func (p *ProfileDB) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	var profile model.Profile
	err := p.q.QueryRow(ctx,
		`SELECT id, name, role, location, domain, avatar_url, email, updated_at
		 FROM profiles WHERE id = $1`,
		id,
	).Scan(
		&profile.ID,
		&profile.Name,
		&profile.Role,
		&profile.Location,
		&profile.Domain,
		&profile.AvatarURL,
		&profile.Email,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("profile", id)
		}
		return nil, fmt.Errorf("postgres: getting profile %s: %w", id, err)
	}
	return &profile, nil
}

func (p *ProfileDB) ListTags(ctx context.Context, kind model.TagKind, profileID string) ([]string, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("postgres: unknown tag collection %q", kind)
	}

	rows, err := p.q.Query(ctx,
		fmt.Sprintf(`SELECT name FROM %s WHERE profile_id = $1 ORDER BY position, ctid`, kind),
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing %s for %s: %w", kind, profileID, err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: scanning %s rows: %w", kind, err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// UpsertProfile writes id, email, updated_at and the patched columns.
// Column names come from repository.PatchColumns, a fixed whitelist.
func (p *ProfileDB) UpsertProfile(ctx context.Context, id, email string, patch model.ProfilePatch, updatedAt time.Time) error {
	cols := []string{"id", "email", "updated_at"}
	args := []any{id, email, updatedAt}
	for _, c := range repository.PatchColumns(patch) {
		cols = append(cols, c.Name)
		args = append(args, c.Value)
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	updates := make([]string, 0, len(cols)-1)
	for _, c := range cols[1:] {
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}

	query := fmt.Sprintf(
		`INSERT INTO profiles (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s`,
		strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "),
	)
	if _, err := p.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("postgres: upserting profile %s: %w", id, err)
	}
	return nil
}

// ReplaceTags deletes the collection and re-inserts names in one statement:
// unnest ... WITH ORDINALITY turns the text[] into (name, position) rows.
// Both statements share one transaction (a savepoint when already inside one).
func (p *ProfileDB) ReplaceTags(ctx context.Context, kind model.TagKind, profileID string, names []string) error {
	if !kind.Valid() {
		return fmt.Errorf("postgres: unknown tag collection %q", kind)
	}

	return pgx.BeginFunc(ctx, p.q, func(tx pgx.Tx) error {
		// Under READ COMMITTED a concurrent DELETE does not see rows another
		// replace is inserting, so two replaces could both survive. Locking
		// the parent row serialises replaces of the same profile.
		if _, err := tx.Exec(ctx,
			`SELECT 1 FROM profiles WHERE id = $1 FOR UPDATE`, profileID,
		); err != nil {
			return fmt.Errorf("postgres: locking profile %s: %w", profileID, err)
		}

		if _, err := tx.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE profile_id = $1`, kind), profileID,
		); err != nil {
			return fmt.Errorf("postgres: deleting %s for %s: %w", kind, profileID, err)
		}

		if len(names) == 0 {
			return nil
		}

		if _, err := tx.Exec(ctx,
			fmt.Sprintf(`INSERT INTO %s (profile_id, name, position)
				SELECT $1, t.name, t.ord - 1
				FROM unnest($2::text[]) WITH ORDINALITY AS t(name, ord)`, kind),
			profileID, names,
		); err != nil {
			return fmt.Errorf("postgres: inserting %s for %s: %w", kind, profileID, err)
		}
		return nil
	})
}

// WithinTx runs fn against a ProfileDB bound to one transaction.
func (p *ProfileDB) WithinTx(ctx context.Context, fn func(repo repository.ProfileRepository) error) error {
	return pgx.BeginFunc(ctx, p.q, func(tx pgx.Tx) error {
		return fn(&ProfileDB{q: tx})
	})
}
