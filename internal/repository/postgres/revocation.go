package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/found/internal/repository"
)

var _ repository.RevocationStore = (*RevocationDB)(nil)

type RevocationDB struct {
	q querier
}

func (r *RevocationDB) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at < now()`); err != nil {
		return fmt.Errorf("postgres: sweeping revoked tokens: %w", err)
	}
	if _, err := r.q.Exec(ctx,
		`INSERT INTO revoked_tokens (token_id, expires_at) VALUES ($1, $2)
		 ON CONFLICT (token_id) DO NOTHING`,
		tokenID, expiresAt,
	); err != nil {
		return fmt.Errorf("postgres: revoking token %s: %w", tokenID, err)
	}
	return nil
}

func (r *RevocationDB) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE token_id = $1)`, tokenID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres: checking token %s: %w", tokenID, err)
	}
	return exists, nil
}
