// Package logger configures the process-wide slog logger from
// observability settings. Handlers write to stderr so bot output on
// stdout stays clean for container log collectors.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Options controls handler construction.
type Options struct {
	// Level is one of: debug, info, warn, error. Unknown values fall
	// back to info.
	Level string

	// Format is "json" or "text". Unknown values fall back to json.
	Format string

	// AddSource includes file:line of the call site. Expensive, meant
	// for development.
	AddSource bool
}

// New builds a *slog.Logger from the given options.
func New(opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{
		Level:     parseLevel(opts.Level),
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	default:
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	}

	return slog.New(handler)
}

// NewDefault returns a JSON logger at info level.
func NewDefault() *slog.Logger {
	return New(Options{Level: "info", Format: "json"})
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
