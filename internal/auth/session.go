// Package auth issues and checks access tokens and carries the resulting
// Session through request contexts.
//
// A Session is what the rest of the system means by "signed in". Services
// never read it from ambient state: handlers pull it out of the request
// context and pass it explicitly, and a nil *Session means "nobody".
package auth

import (
	"context"
	"time"
)

// Session is the decoded identity behind an access token.
type Session struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// contextKey is unexported so no other package can read or overwrite the
// session stored under it.
type contextKey string

const sessionKey contextKey = "session"

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFromContext returns the session stored by the auth middleware.
// Returns (nil, false) for anonymous requests.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*Session)
	return sess, ok && sess != nil
}
