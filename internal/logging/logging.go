// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Level      string
	Format     string // "json" or "text"
	IncludePID bool
}

// Configure builds a logger from cfg, installs it as the slog default,
// and returns it.
func Configure(cfg Config) *slog.Logger {
	return ConfigureWriter(cfg, os.Stderr)
}

// ConfigureWriter is Configure with an explicit output, mainly for
// tests.
func ConfigureWriter(cfg Config, out io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.ToLower(strings.TrimSpace(cfg.Format)) == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	if cfg.IncludePID {
		handler = handler.WithAttrs([]slog.Attr{slog.Int("pid", os.Getpid())})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
