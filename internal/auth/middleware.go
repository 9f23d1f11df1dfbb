package auth

import (
	"context"
	"net/http"
	"strings"
)

// TokenCookie is the cookie the browser flow (GitHub sign-in) stores the
// access token in. API clients send the same token as a Bearer header.
const TokenCookie = "token"

// Authenticator turns a raw access token into a Session.
// *TokenService checks signature and expiry; the auth service also checks the
// revocation list.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Session, error)
}

// RequireAuth rejects requests without a usable token with 401 and stores
// the Session in the request context otherwise.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessionFromRequest(r, a)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// OptionalAuth attaches a Session when a valid token is present and lets the
// request through either way. Handlers on these routes decide what "no
// session" means (the profile read answers null, the profile write answers
// 401).
func OptionalAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess, err := sessionFromRequest(r, a); err == nil {
				r = r.WithContext(WithSession(r.Context(), sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokenFromRequest extracts the raw token: Authorization: Bearer first,
// then the token cookie.
func TokenFromRequest(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token), true
		}
	}
	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

func sessionFromRequest(r *http.Request, a Authenticator) (*Session, error) {
	token, ok := TokenFromRequest(r)
	if !ok {
		return nil, http.ErrNoCookie
	}
	return a.Authenticate(r.Context(), token)
}
