// Package config reads server settings from the environment.
//
// Values come from real environment variables first; a .env file in the
// working directory (and .env.local on top of it) fills in whatever is not
// already set, so local development needs no exported variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything cmd/server needs to build the server.
type Config struct {
	Port int

	// Storage: DATABASE_URL selects Postgres, otherwise SQLite at DBPath.
	DBPath      string
	DatabaseURL string

	// Token revocation: Redis when RedisAddr is set, otherwise the database.
	RedisAddr     string
	RedisPassword string

	JWTSecret string
	TokenTTL  time.Duration

	// GitHub sign-in is enabled only when both ID and secret are set.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	LogLevel slog.Level
	LogFile  string

	// ProfileAtomicWrites runs each profile update in one transaction.
	ProfileAtomicWrites bool
}

// GitHubEnabled reports whether GitHub sign-in is configured.
func (c Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// LoadDotEnv loads files into the process environment without overriding
// variables that are already set. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env", ".env.local"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("config: loading %s: %w", f, err)
		}
	}
	return nil
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup parses the configuration from lookup, which has the shape of
// os.LookupEnv. Tests pass a map-backed function.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := Config{
		DBPath:             get("DB_PATH", "data/found.db"),
		DatabaseURL:        get("DATABASE_URL", ""),
		RedisAddr:          get("REDIS_ADDR", ""),
		RedisPassword:      get("REDIS_PASSWORD", ""),
		JWTSecret:          get("JWT_SECRET", ""),
		GitHubClientID:     get("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: get("GITHUB_CLIENT_SECRET", ""),
		LogFile:            get("LOG_FILE", ""),
	}

	var err error
	if cfg.Port, err = strconv.Atoi(get("PORT", "8080")); err != nil || cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("config: invalid PORT %q", get("PORT", ""))
	}

	if cfg.TokenTTL, err = time.ParseDuration(get("TOKEN_TTL", "168h")); err != nil || cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("config: invalid TOKEN_TTL %q", get("TOKEN_TTL", ""))
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("config: invalid LOG_LEVEL: %w", err)
	}

	if cfg.ProfileAtomicWrites, err = strconv.ParseBool(get("PROFILE_ATOMIC_WRITES", "false")); err != nil {
		return Config{}, fmt.Errorf("config: invalid PROFILE_ATOMIC_WRITES %q", get("PROFILE_ATOMIC_WRITES", ""))
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("config: JWT_SECRET is required (generate one with: openssl rand -hex 32)")
	}
	if len(cfg.JWTSecret) < 16 {
		return Config{}, errors.New("config: JWT_SECRET must be at least 16 characters")
	}

	cfg.GitHubCallbackURL = get("GITHUB_CALLBACK_URL",
		fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port))

	return cfg, nil
}
