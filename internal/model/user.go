// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Accounts are created either with email + password (PasswordHash set) or by
// signing in with GitHub (GitHubID set). The ID is an xid generated by the
// repository and doubles as the profile's primary key: one account, one
// profile row.
//
// WHY GitHubID *int64?
// Most accounts never touch GitHub. A nil pointer maps to SQL NULL, which lets
// the UNIQUE constraint on github_id hold only for accounts that have one.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GitHubID     *int64    `json:"githubId,omitempty"`
	Login        string    `json:"login,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
