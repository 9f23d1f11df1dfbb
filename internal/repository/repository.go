// Package repository declares the storage interfaces the service layer depends
// on. Implementations live in sub-packages (sqlite, postgres, redis); services
// only ever see these interfaces.
package repository

import (
	"context"
	"time"

	"github.com/sakif/found/internal/model"
)

// UserRepository stores accounts.
type UserRepository interface {
	// Create inserts a new email/password account. Returns apperror.ErrConflict
	// if the email is taken.
	Create(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertGitHub creates or refreshes the account linked to user.GitHubID.
	UpsertGitHub(ctx context.Context, user *model.User) error
}

// ProfileRepository stores the profiles table and its two child tables.
//
// Every method is a single round trip (or a single short transaction) so the
// service decides how reads are fanned out and how writes are sequenced.
type ProfileRepository interface {
	// GetProfile returns the scalar columns only; Skills and Interests are left
	// nil. Returns apperror.ErrNotFound when no row exists.
	GetProfile(ctx context.Context, id string) (*model.Profile, error)

	// ListTags returns the names of one child collection in display order.
	ListTags(ctx context.Context, kind model.TagKind, profileID string) ([]string, error)

	// UpsertProfile writes id, email, updated_at and every non-nil scalar of
	// patch. Columns the patch leaves nil keep their stored value on an
	// existing row and are NULL on a new one.
	UpsertProfile(ctx context.Context, id, email string, patch model.ProfilePatch, updatedAt time.Time) error

	// ReplaceTags deletes every row of the collection for profileID and then,
	// if names is non-empty, inserts names in one batch. Delete and insert
	// commit together.
	ReplaceTags(ctx context.Context, kind model.TagKind, profileID string, names []string) error
}

// Transactor is implemented by stores that can run several ProfileRepository
// calls in one transaction. fn receives a repository bound to the transaction;
// returning an error rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repo ProfileRepository) error) error
}

// RevocationStore remembers access tokens that were signed out before they
// expired.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ProfileColumn is one optional scalar column of the profiles table together
// with the value a patch assigns to it.
type ProfileColumn struct {
	Name  string
	Value string
}

// PatchColumns lists the scalar columns set by patch, in a fixed order.
// Shared by the SQL implementations so both build the same upsert.
func PatchColumns(patch model.ProfilePatch) []ProfileColumn {
	var cols []ProfileColumn
	add := func(name string, v *string) {
		if v != nil {
			cols = append(cols, ProfileColumn{Name: name, Value: *v})
		}
	}
	add("name", patch.Name)
	add("role", patch.Role)
	add("location", patch.Location)
	add("domain", patch.Domain)
	add("avatar_url", patch.AvatarURL)
	return cols
}
