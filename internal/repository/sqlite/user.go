package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/found/internal/apperror"
	"github.com/sakif/found/internal/model"
	"github.com/sakif/found/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB is the users table.
type UserDB struct {
	q querier
}

const userColumns = `id, email, password_hash, github_id, login, avatar_url, created_at, updated_at`

// Create inserts a new account and fills in ID and timestamps.
//
// Email is the login name, so the column is UNIQUE. A second signup with the
// same address surfaces as apperror.ErrConflict rather than a raw SQL error.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := u.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		githubIDValue(user.GitHubID),
		user.Login,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}
	return nil
}

// GetUserByID retrieves an account by its internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := u.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetUserByEmail retrieves an account by its login email.
func (u *UserDB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := u.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

// UpsertGitHub inserts or refreshes the account linked to user.GitHubID.
//
// An existing account KEEPS its internal ID (its profile hangs off it); only
// login, email and avatar are refreshed from GitHub. A new account gets a
// fresh xid.
func (u *UserDB) UpsertGitHub(ctx context.Context, user *model.User) error {
	if user.GitHubID == nil {
		return fmt.Errorf("sqlite: upserting GitHub user: missing GitHub ID")
	}

	var existingID string
	err := u.q.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, *user.GitHubID,
	).Scan(&existingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", *user.GitHubID, err)
	}

	if existingID == "" {
		return u.Create(ctx, user)
	}

	user.ID = existingID
	user.UpdatedAt = time.Now()
	_, err = u.q.ExecContext(ctx,
		`UPDATE users SET login = ?, email = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
		user.Login,
		user.Email,
		user.AvatarURL,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		user     model.User
		githubID sql.NullInt64
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&githubID,
		&user.Login,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if githubID.Valid {
		id := githubID.Int64
		user.GitHubID = &id
	}
	return &user, nil
}

func githubIDValue(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

// isUniqueViolation recognises SQLite's UNIQUE constraint error text.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
