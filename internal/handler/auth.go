package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/found/internal/apperror"
	"github.com/sakif/found/internal/auth"
	"github.com/sakif/found/internal/model"
	"github.com/sakif/found/internal/service"
)

// AuthService is the slice of *service.AuthService the handler needs.
// Tests substitute a fake.
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (*service.AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*service.AuthResult, error)
	SignOut(ctx context.Context, sess *auth.Session) error
	CurrentUser(ctx context.Context, sess *auth.Session) (*model.User, error)
	LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*service.AuthResult, error)
}

// GitHubExchanger is the OAuth half of *auth.GitHubProvider.
type GitHubExchanger interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// AuthHandler serves the auth contract over HTTP.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister       → POST /auth/register  (signUp)
//   - HandleLogin          → POST /auth/login     (signIn)
//   - HandleLogout         → POST /auth/logout    (signOut, revokes the token)
//   - HandleMe             → GET  /api/me         (getCurrentUser)
//   - HandleGitHubLogin    → redirect to GitHub
//   - HandleGitHubCallback → exchange the code, issue a token
type AuthHandler struct {
	svc    AuthService
	github GitHubExchanger // nil when GitHub sign-in is not configured
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil.
func NewAuthHandler(svc AuthService, github GitHubExchanger, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, github: github, logger: logger}
}

// GitHubEnabled reports whether the OAuth routes should be mounted.
func (h *AuthHandler) GitHubEnabled() bool {
	return h.github != nil
}

// credentialsRequest is the body of register and login.
type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// TokenResponse is returned by every successful sign-in.
type TokenResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// HandleRegister creates an account and signs it in.
//
// HTTP: POST /auth/register
// REQUEST BODY: {"email": "ada@example.com", "password": "secret1"}
// RESPONSE: 201 TokenResponse
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.svc.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logFailure("register", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse(result))
}

// HandleLogin signs an existing account in.
//
// HTTP: POST /auth/login
// RESPONSE: 200 TokenResponse, or 401 for bad credentials
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.svc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logFailure("login", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse(result))
}

// HandleLogout revokes the caller's token and clears the browser cookie.
//
// HTTP: POST /auth/logout
// Auth: Required
//
// POST and not GET: logout changes state, and browsers prefetch GETs.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	if err := h.svc.SignOut(r.Context(), sess); err != nil {
		h.logger.Error("logout failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	clearTokenCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the signed-in account.
//
// HTTP: GET /api/me
// Auth: Required
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		// Should never happen on a RequireAuth-protected route, but be safe.
		writeError(w, apperror.NoSession())
		return
	}

	user, err := h.svc.CurrentUser(r.Context(), sess)
	if err != nil {
		h.logger.Error("HandleMe: user lookup failed",
			slog.String("userID", sess.UserID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state goes into a short-lived HttpOnly cookie and into the
// redirect; the callback only proceeds when the two match.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub user
//  3. Upsert the account and issue a token (service)
//  4. Set the token cookie and answer with the TokenResponse
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	// --- Step 1: Validate CSRF state ---
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		writeError(w, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeError(w, apperror.Forbidden("invalid OAuth state"))
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		writeError(w, apperror.Unauthorized("GitHub authorization was denied"))
		return
	}

	// --- Step 2: Exchange code for GitHub user ---
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeError(w, apperror.Unauthorized("GitHub authentication failed"))
		return
	}

	// --- Step 3: Upsert account, issue token ---
	result, err := h.svc.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("auth callback: sign-in failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	// --- Step 4: Cookie for browsers, JSON for everyone ---
	// Secure should be true behind HTTPS; left false for local development.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.Session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, tokenResponse(result))
}

func (h *AuthHandler) logFailure(op string, err error) {
	status, kind := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", slog.String("error", err.Error()))
		return
	}
	h.logger.Info(op+" rejected", slog.String("reason", kind))
}

func tokenResponse(result *service.AuthResult) TokenResponse {
	return TokenResponse{
		Token:     result.Token,
		ExpiresAt: result.Session.ExpiresAt,
		User:      result.User,
	}
}

func clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // tells the browser to delete the cookie immediately
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
