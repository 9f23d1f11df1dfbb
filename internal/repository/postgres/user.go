package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"
	"github.com/sakif/found/internal/apperror"
	"github.com/sakif/found/internal/model"
	"github.com/sakif/found/internal/repository"
)

var _ repository.UserRepository = (*UserDB)(nil)

type UserDB struct {
	q querier
}

const userColumns = `id, email, password_hash, github_id, login, avatar_url, created_at, updated_at`

func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := u.q.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Email, user.PasswordHash, user.GitHubID,
		user.Login, user.AvatarURL, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("postgres: inserting user %s: %w", user.Email, err)
	}
	return nil
}

func (u *UserDB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(u.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}
	return user, nil
}

func (u *UserDB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(u.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("postgres: getting user by email: %w", err)
	}
	return user, nil
}

// UpsertGitHub keeps the internal ID of an existing GitHub-linked account and
// refreshes its login, email and avatar.
func (u *UserDB) UpsertGitHub(ctx context.Context, user *model.User) error {
	if user.GitHubID == nil {
		return fmt.Errorf("postgres: upserting GitHub user: missing GitHub ID")
	}

	var existingID string
	err := u.q.QueryRow(ctx, `SELECT id FROM users WHERE github_id = $1`, *user.GitHubID).Scan(&existingID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("postgres: looking up user by github_id %d: %w", *user.GitHubID, err)
	}
	if existingID == "" {
		return u.Create(ctx, user)
	}

	user.ID = existingID
	user.UpdatedAt = time.Now()
	_, err = u.q.Exec(ctx,
		`UPDATE users SET login = $1, email = $2, avatar_url = $3, updated_at = $4 WHERE id = $5`,
		user.Login, user.Email, user.AvatarURL, user.UpdatedAt, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("postgres: updating user %s: %w", user.ID, err)
	}
	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.GitHubID,
		&user.Login,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
