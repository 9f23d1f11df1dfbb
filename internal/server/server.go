// Package server is the composition root: it opens the stores, builds the
// services and handlers, and mounts them on a chi router.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → stores (sqlite | postgres, + redis) → services → handlers → routes
//
// Every layer only receives what it needs: services get repository
// interfaces, handlers get services.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/found/internal/auth"
	"github.com/sakif/found/internal/config"
	"github.com/sakif/found/internal/handler"
	"github.com/sakif/found/internal/middleware"
	"github.com/sakif/found/internal/repository"
	"github.com/sakif/found/internal/repository/postgres"
	redisRepo "github.com/sakif/found/internal/repository/redis"
	sqliteRepo "github.com/sakif/found/internal/repository/sqlite"
	"github.com/sakif/found/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns its store connections and closes them, in reverse order of
// opening, when Start returns or Close is called.
type Server struct {
	router  *chi.Mux
	config  config.Config
	logger  *slog.Logger
	closers []io.Closer
}

// stores is the storage backend chosen by configuration.
type stores struct {
	users       repository.UserRepository
	profiles    repository.ProfileRepository
	revocations repository.RevocationStore
	checks      map[string]handler.Pinger
}

// New opens the stores and wires the dependency graph.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}

	st, err := s.openStores(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	authService := service.NewAuthService(st.users, st.revocations, tokens, auth.NewPasswordService(), logger)
	profileService := service.NewProfileService(st.profiles, logger, service.WithAtomicWrites(cfg.ProfileAtomicWrites))
	if cfg.ProfileAtomicWrites && !profileService.Atomic() {
		logger.Warn("PROFILE_ATOMIC_WRITES set but the store has no transactions; updates stay step-wise")
	}

	var github handler.GitHubExchanger
	if cfg.GitHubEnabled() {
		github = auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubCallbackURL)
	} else {
		logger.Info("GITHUB_CLIENT_ID/SECRET not set, GitHub sign-in disabled")
	}

	s.setupRoutes(
		authService,
		handler.NewAuthHandler(authService, github, logger),
		handler.NewProfileHandler(profileService, logger),
		handler.NewHealthHandler(st.checks, logger),
	)
	return s, nil
}

// openStores picks Postgres when DATABASE_URL is set and SQLite otherwise,
// then Redis for revocations when REDIS_ADDR is set.
//
// An unreachable Redis is not fatal: revocations fall back to the database
// table so sign-out keeps working on a single instance.
func (s *Server) openStores(ctx context.Context) (*stores, error) {
	st := &stores{checks: make(map[string]handler.Pinger)}

	if s.config.DatabaseURL != "" {
		db, err := postgres.New(ctx, s.config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		s.closers = append(s.closers, db)
		st.users, st.profiles, st.revocations = db.Users(), db.Profiles(), db.Revocations()
		st.checks["db"] = db
		s.logger.Info("using postgres store")
	} else {
		if s.config.DBPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(s.config.DBPath), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(s.config.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		s.closers = append(s.closers, db)
		st.users, st.profiles, st.revocations = db.Users(), db.Profiles(), db.Revocations()
		st.checks["db"] = db
		s.logger.Info("using sqlite store", slog.String("path", s.config.DBPath))
	}

	if s.config.RedisAddr != "" {
		rs, err := redisRepo.New(ctx, s.config.RedisAddr, s.config.RedisPassword)
		if err != nil {
			s.logger.Warn("redis unavailable, keeping revocations in the database",
				slog.String("addr", s.config.RedisAddr),
				slog.String("error", err.Error()),
			)
		} else {
			s.closers = append(s.closers, rs)
			st.revocations = rs
			st.checks["redis"] = rs
		}
	}

	return st, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET  /healthz               → liveness + dependency pings
// POST /auth/register         → sign up
// POST /auth/login            → sign in
// POST /auth/logout           → sign out            [RequireAuth]
// GET  /auth/github/login     → OAuth redirect      (only when configured)
// GET  /auth/github/callback  → OAuth callback      (only when configured)
// GET  /api/me                → current user        [RequireAuth]
// GET  /api/profile           → Profile Sync load   [OptionalAuth]
// PUT  /api/profile           → Profile Sync update [OptionalAuth]
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID  2. RealIP  3. Recoverer  4. request logging
func (s *Server) setupRoutes(
	authn auth.Authenticator,
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
	healthHandler *handler.HealthHandler,
) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.With(auth.RequireAuth(authn)).Post("/logout", authHandler.HandleLogout)

		if authHandler.GitHubEnabled() {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	s.router.Route("/api", func(r chi.Router) {
		r.With(auth.RequireAuth(authn)).Get("/me", authHandler.HandleMe)

		// The profile service itself decides what "no session" means.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(authn))
			r.Get("/profile", profileHandler.HandleGet)
			r.Put("/profile", profileHandler.HandleUpdate)
		})
	})
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases every store connection. Safe to call more than once.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Start serves HTTP until SIGINT/SIGTERM, then shuts down gracefully:
//  1. stop accepting connections
//  2. wait up to 30s for in-flight requests
//  3. close the stores
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
