package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the process logger: text output on stdout, and when
// LOG_FILE is set the same lines also go to a size-rotated file.
//
// The returned closer flushes and closes the log file; it is a no-op when
// there is none.
func NewLogger(cfg Config) (*slog.Logger, io.Closer) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)

	if cfg.LogFile != "" {
		// lumberjack creates the file on first write, but not its directory.
		_ = os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755)
		file := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes before rotation
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, file)
		closer = file
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.LogLevel}))
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
