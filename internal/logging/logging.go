// Package logging configures the process-wide slog default.
package logging

import (
	"log/slog"
	"os"

	"github.com/landrop/landrop/internal/config"
)

// Setup installs the default logger per the log config. The LOG_LEVEL
// environment variable still wins over everything for quick debugging.
func Setup(cfg config.LogConfig) {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelError
	}

	if l, ok := os.LookupEnv("LOG_LEVEL"); ok {
		switch l {
		case "dev", "development", "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn", "warning":
			level = slog.LevelWarn
		case "error", "production", "prod":
			level = slog.LevelError
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
