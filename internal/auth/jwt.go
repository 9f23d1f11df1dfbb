package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const issuer = "found"

// DefaultTokenTTL is how long an access token stays valid when no TTL is
// configured. Mobile sessions are long-lived; there is no refresh flow.
const DefaultTokenTTL = 7 * 24 * time.Hour

// TokenService handles JWT creation and validation.
//
// Tokens are HS256-signed and carry everything a Session needs:
//
//	sub   → user ID
//	email → account email (profiles copy it on every write)
//	jti   → token ID, the handle used to revoke the token on sign-out
//	exp   → expiry
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and lifetime.
// A zero ttl selects DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Generate signs a new access token for the user and returns it together
// with the session it encodes.
func (s *TokenService) Generate(userID, email string) (string, *Session, error) {
	return s.GenerateWithDuration(userID, email, s.ttl)
}

// GenerateWithDuration is Generate with an explicit lifetime. Tests use a
// negative duration to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID, email string, d time.Duration) (string, *Session, error) {
	now := time.Now()
	sess := &Session{
		UserID:    userID,
		Email:     email,
		TokenID:   xid.New().String(),
		ExpiresAt: now.Add(d),
	}

	c := claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.TokenID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, sess, nil
}

// Validate parses and verifies a JWT string and returns its session.
//
// The parser pins HS256 (no "alg: none" or key-confusion tricks), requires
// our issuer and requires an expiry.
func (s *TokenService) Validate(tokenStr string) (*Session, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}

	sess := &Session{
		UserID:  c.Subject,
		Email:   c.Email,
		TokenID: c.ID,
	}
	if c.ExpiresAt != nil {
		sess.ExpiresAt = c.ExpiresAt.Time
	}
	return sess, nil
}

// Authenticate makes TokenService usable as a plain Authenticator (signature
// and expiry only, no revocation check).
func (s *TokenService) Authenticate(_ context.Context, tokenStr string) (*Session, error) {
	return s.Validate(tokenStr)
}
