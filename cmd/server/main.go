// Package main is the entry point for the Found. server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
// 1. Read configuration (environment, optionally seeded from .env)
// 2. Create dependencies (logger, stores via server.New)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server,
// internal/service, internal/handler, ...).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/found/internal/config"
	"github.com/sakif/found/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// .env only fills in variables the real environment does not set.
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	logger, logFile := config.NewLogger(cfg)
	defer logFile.Close()
	slog.SetDefault(logger)

	// === 3. CREATE AND START THE SERVER ===
	// Connecting to Postgres/Redis gets a bounded window; after that the
	// server runs on its own lifecycle.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	srv, err := server.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		logFile.Close()
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		logFile.Close()
		os.Exit(1)
	}
}
