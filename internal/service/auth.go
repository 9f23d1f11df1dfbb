// Package service holds the business rules. Handlers translate HTTP into
// calls on these services; services talk to storage only through the
// repository interfaces.
//
//	Handler (HTTP) → Service (business rules) → Repository (DB)
//	               ↘ TokenService (JWT)
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/found/internal/apperror"
	"github.com/sakif/found/internal/auth"
	"github.com/sakif/found/internal/model"
	"github.com/sakif/found/internal/repository"
)

// AuthService implements the auth contract the app consumes: sign up, sign
// in, sign out and "who is the current user".
//
// DEPENDENCIES (injected via NewAuthService):
//   - users        repository.UserRepository → account records
//   - revocations  repository.RevocationStore → signed-out token IDs
//   - tokens       *auth.TokenService        → issue/validate JWTs
//   - passwords    *auth.PasswordService     → bcrypt hashing
//   - logger       *slog.Logger              → structured logging
type AuthService struct {
	users       repository.UserRepository
	revocations repository.RevocationStore
	tokens      *auth.TokenService
	passwords   *auth.PasswordService
	logger      *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	revocations repository.RevocationStore,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		revocations: revocations,
		tokens:      tokens,
		passwords:   passwords,
		logger:      logger,
	}
}

// AuthResult bundles the account, the issued token and the session it
// encodes so the handler can answer (and set a cookie) in one step.
type AuthResult struct {
	User    *model.User
	Token   string
	Session *auth.Session
}

// SignUp creates an email/password account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrConflict,
				Message: "an account with this email already exists",
				Field:   "email",
			}
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID))
	return s.issue(user)
}

// SignIn checks email and password and issues a fresh token.
//
// Unknown email and wrong password produce the same error, and the unknown
// email path still pays for a bcrypt comparison.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.DummyVerify(password)
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if user.PasswordHash == "" {
		// GitHub-only account.
		s.passwords.DummyVerify(password)
		return nil, apperror.Unauthorized("invalid email or password")
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	s.logger.Info("user signed in", slog.String("userID", user.ID))
	return s.issue(user)
}

// SignOut revokes the session's token. Signing out without a session is a
// no-op, matching the client which clears its local token either way.
func (s *AuthService) SignOut(ctx context.Context, sess *auth.Session) error {
	if sess == nil || sess.TokenID == "" {
		return nil
	}
	if err := s.revocations.Revoke(ctx, sess.TokenID, sess.ExpiresAt); err != nil {
		return fmt.Errorf("service/auth: revoking token: %w", err)
	}
	s.logger.Info("user signed out", slog.String("userID", sess.UserID))
	return nil
}

// Authenticate validates a raw token and rejects revoked ones.
// It satisfies auth.Authenticator, so the HTTP middleware uses it directly.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Session, error) {
	sess, err := s.tokens.Validate(token)
	if err != nil {
		return nil, apperror.Unauthorized("invalid or expired token")
	}

	revoked, err := s.revocations.IsRevoked(ctx, sess.TokenID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: checking revocation: %w", err)
	}
	if revoked {
		return nil, apperror.Unauthorized("token has been signed out")
	}
	return sess, nil
}

// CurrentUser returns the account behind the session, or nil when there is
// no session.
func (s *AuthService) CurrentUser(ctx context.Context, sess *auth.Session) (*model.User, error) {
	if sess == nil {
		return nil, nil
	}
	user, err := s.users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", sess.UserID, err)
	}
	return user, nil
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback: upsert the
// account keyed on the GitHub ID and issue a token.
//
// Users who hide their email get GitHub's noreply address, so the account
// and its profile still have one.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	ghID := ghUser.ID
	user := &model.User{
		Email:     ghUser.AccountEmail(),
		GitHubID:  &ghID,
		Login:     ghUser.Login,
		AvatarURL: ghUser.AvatarURL,
	}
	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, sess, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token, Session: sess}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateCredentials mirrors the sign-in form: an email that looks like one
// and a password of at least auth.MinPasswordLength characters.
func validateCredentials(email, password string) error {
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	if at := strings.Index(email, "@"); at <= 0 || at == len(email)-1 {
		return apperror.ValidationFailed("email", "please enter a valid email")
	}
	if len([]rune(password)) < auth.MinPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}
	return nil
}
