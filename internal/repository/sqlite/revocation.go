package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/found/internal/repository"
)

var _ repository.RevocationStore = (*RevocationDB)(nil)

// RevocationDB is the revoked_tokens table: token IDs signed out before
// their expiry. Rows past expires_at are useless (the token would be rejected
// anyway) and are swept on every Revoke.
type RevocationDB struct {
	q querier
}

func (r *RevocationDB) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if _, err := r.q.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("sqlite: sweeping revoked tokens: %w", err)
	}

	if _, err := r.q.ExecContext(ctx,
		`INSERT INTO revoked_tokens (token_id, expires_at) VALUES (?, ?)
		 ON CONFLICT(token_id) DO NOTHING`,
		tokenID, expiresAt.UTC(),
	); err != nil {
		return fmt.Errorf("sqlite: revoking token %s: %w", tokenID, err)
	}
	return nil
}

func (r *RevocationDB) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int
	if err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE token_id = ?`, tokenID,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("sqlite: checking token %s: %w", tokenID, err)
	}
	return count > 0, nil
}
