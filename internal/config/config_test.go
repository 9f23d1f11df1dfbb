package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

const testSecret = "test-secret-at-least-16-chars!!"

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{"JWT_SECRET": testSecret}))
	if err != nil {
		t.Fatalf("FromLookup() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DBPath != "data/found.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.TokenTTL != 7*24*time.Hour {
		t.Errorf("TokenTTL = %v, want 168h", cfg.TokenTTL)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if cfg.ProfileAtomicWrites {
		t.Error("ProfileAtomicWrites should default to false")
	}
	if cfg.GitHubEnabled() {
		t.Error("GitHub sign-in should be off without credentials")
	}
	if cfg.GitHubCallbackURL != "http://localhost:8080/auth/github/callback" {
		t.Errorf("GitHubCallbackURL = %q", cfg.GitHubCallbackURL)
	}
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"JWT_SECRET":            testSecret,
		"PORT":                  "9090",
		"DATABASE_URL":          "postgres://found@localhost/found",
		"REDIS_ADDR":            "localhost:6379",
		"TOKEN_TTL":             "30m",
		"LOG_LEVEL":             "debug",
		"PROFILE_ATOMIC_WRITES": "true",
		"GITHUB_CLIENT_ID":      "id",
		"GITHUB_CLIENT_SECRET":  "secret",
	}))
	if err != nil {
		t.Fatalf("FromLookup() error = %v", err)
	}

	if cfg.Port != 9090 || cfg.TokenTTL != 30*time.Minute || cfg.LogLevel != slog.LevelDebug {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.ProfileAtomicWrites || !cfg.GitHubEnabled() {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.GitHubCallbackURL != "http://localhost:9090/auth/github/callback" {
		t.Errorf("GitHubCallbackURL = %q", cfg.GitHubCallbackURL)
	}
}

func TestFromLookup_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"short secret", map[string]string{"JWT_SECRET": "short"}},
		{"bad port", map[string]string{"JWT_SECRET": testSecret, "PORT": "eighty"}},
		{"port out of range", map[string]string{"JWT_SECRET": testSecret, "PORT": "70000"}},
		{"bad ttl", map[string]string{"JWT_SECRET": testSecret, "TOKEN_TTL": "forever"}},
		{"negative ttl", map[string]string{"JWT_SECRET": testSecret, "TOKEN_TTL": "-1h"}},
		{"bad level", map[string]string{"JWT_SECRET": testSecret, "LOG_LEVEL": "loud"}},
		{"bad bool", map[string]string{"JWT_SECRET": testSecret, "PROFILE_ATOMIC_WRITES": "sometimes"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := FromLookup(lookupFrom(tc.env)); err == nil {
				t.Fatal("FromLookup() should fail")
			}
		})
	}
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "FOUND_TEST_FROM_FILE=file\nFOUND_TEST_ALREADY_SET=file\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	t.Setenv("FOUND_TEST_ALREADY_SET", "env")
	// t.Setenv restores the variable afterwards; register the other one too.
	t.Setenv("FOUND_TEST_FROM_FILE", "")
	os.Unsetenv("FOUND_TEST_FROM_FILE")

	if err := LoadDotEnv(envFile, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}

	if got := os.Getenv("FOUND_TEST_FROM_FILE"); got != "file" {
		t.Errorf("FOUND_TEST_FROM_FILE = %q, want file", got)
	}
	if got := os.Getenv("FOUND_TEST_ALREADY_SET"); got != "env" {
		t.Errorf("FOUND_TEST_ALREADY_SET = %q, want env (not overridden)", got)
	}
}

func TestNewLogger_WritesToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "server.log")

	logger, closer := NewLogger(Config{LogFile: logFile, LogLevel: slog.LevelInfo})
	logger.Info("hello from test")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("log file is empty")
	}
}
