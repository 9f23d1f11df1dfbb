// Package client talks to the Found. server on behalf of the CLI and keeps
// the access token in device storage between runs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/found/internal/apperror"
	"github.com/sakif/found/internal/auth"
	"github.com/sakif/found/internal/localstore"
	"github.com/sakif/found/internal/model"
)

// TokenStore persists the access token. *localstore.Store satisfies it.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Client is a Found. API client.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	logger  *slog.Logger
}

// New creates a Client for the server at baseURL.
func New(baseURL string, tokens TokenStore, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
		logger:  logger,
	}
}

// WithHTTPClient replaces the underlying HTTP client (tests use the
// httptest server's client).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// Register creates an account, stores its token and returns the session.
func (c *Client) Register(ctx context.Context, email, password string) (*auth.Session, error) {
	return c.signIn(ctx, "/auth/register", email, password)
}

// Login signs in, stores the token and returns the session.
func (c *Client) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	return c.signIn(ctx, "/auth/login", email, password)
}

func (c *Client) signIn(ctx context.Context, path, email, password string) (*auth.Session, error) {
	var res tokenResponse
	if err := c.do(ctx, http.MethodPost, path, "", credentials{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	if res.Token == "" || res.User == nil {
		return nil, fmt.Errorf("client: server returned no token")
	}
	if err := c.tokens.Set(ctx, localstore.KeySessionToken, res.Token); err != nil {
		return nil, fmt.Errorf("client: saving session: %w", err)
	}
	return &auth.Session{UserID: res.User.ID, Email: res.User.Email, ExpiresAt: res.ExpiresAt}, nil
}

// Logout revokes the token on the server and forgets it locally. The local
// token is removed even when the server cannot be reached.
func (c *Client) Logout(ctx context.Context) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}

	remoteErr := c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
	if remoteErr != nil && !errors.Is(remoteErr, apperror.ErrUnauthorized) {
		c.logger.Warn("server sign-out failed, clearing local session anyway",
			slog.String("error", remoteErr.Error()))
	}

	if err := c.tokens.Delete(ctx, localstore.KeySessionToken); err != nil {
		return fmt.Errorf("client: clearing session: %w", err)
	}
	return nil
}

// CurrentSession resolves the stored token into a session by asking the
// server who it belongs to. No stored token, or one the server rejects,
// resolves to nil; a rejected token is also forgotten.
func (c *Client) CurrentSession(ctx context.Context) (*auth.Session, error) {
	token, err := c.token(ctx)
	if err != nil || token == "" {
		return nil, err
	}

	var user model.User
	if err := c.do(ctx, http.MethodGet, "/api/me", token, nil, &user); err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			if err := c.tokens.Delete(ctx, localstore.KeySessionToken); err != nil {
				c.logger.Warn("clearing rejected session", slog.String("error", err.Error()))
			}
			return nil, nil
		}
		return nil, err
	}
	return &auth.Session{UserID: user.ID, Email: user.Email}, nil
}

// LoadProfile returns the signed-in user's profile, or nil when there is
// none (or nobody is signed in).
func (c *Client) LoadProfile(ctx context.Context) (*model.Profile, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	var profile *model.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile", token, nil, &profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// FetchProfile is LoadProfile for display: any failure is logged and shown
// as "no profile".
func (c *Client) FetchProfile(ctx context.Context) *model.Profile {
	profile, err := c.LoadProfile(ctx)
	if err != nil {
		c.logger.Error("fetching profile", slog.String("error", err.Error()))
		return nil
	}
	return profile
}

// UpdateProfile submits patch and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, patch model.ProfilePatch) (*model.Profile, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	var profile *model.Profile
	if err := c.do(ctx, http.MethodPut, "/api/profile", token, patch, &profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	token, _, err := c.tokens.Get(ctx, localstore.KeySessionToken)
	if err != nil {
		return "", fmt.Errorf("client: reading session: %w", err)
	}
	return token, nil
}

// do sends one request. A non-2xx answer becomes an *apperror.AppError
// carrying the server's message, so callers can use errors.Is against the
// same sentinels the server uses.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encoding request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decoding %s response: %w", path, err)
	}
	return nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

var kinds = map[string]error{
	"validation_error": apperror.ErrValidation,
	"unauthorized":     apperror.ErrUnauthorized,
	"forbidden":        apperror.ErrForbidden,
	"not_found":        apperror.ErrNotFound,
	"conflict":         apperror.ErrConflict,
	"read_failed":      apperror.ErrReadFailed,
	"write_failed":     apperror.ErrWriteFailed,
}

func decodeError(resp *http.Response) error {
	var body errorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)

	kind, ok := kinds[body.Error]
	if !ok && resp.StatusCode == http.StatusUnauthorized {
		kind, ok = apperror.ErrUnauthorized, true
	}
	if !ok {
		return fmt.Errorf("client: server returned %s", resp.Status)
	}

	msg := body.Message
	if msg == "" {
		msg = resp.Status
	}
	return &apperror.AppError{Err: kind, Message: msg, Field: body.Field}
}
