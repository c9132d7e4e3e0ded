// Package logging builds the slog logger shared by all sizelint components.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// EnvVar overrides every other level setting when non-empty.
const EnvVar = "SIZELINT_LOG"

// Options selects the log level and destination.
type Options struct {
	// Level is an explicit level name ("debug", "info", "warn", "error").
	Level string

	// Debug and Quiet are the CLI shorthands; Debug wins if both are set.
	Debug bool
	Quiet bool

	// Writer defaults to stderr.
	Writer io.Writer
}

// New returns a text logger. The level is taken from SIZELINT_LOG, then
// Options.Level, then Debug/Quiet, then info.
func New(opts Options) (*slog.Logger, error) {
	level, err := resolveLevel(opts)
	if err != nil {
		return nil, err
	}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	})
	return slog.New(handler), nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func resolveLevel(opts Options) (slog.Level, error) {
	if env := os.Getenv(EnvVar); env != "" {
		level, err := ParseLevel(env)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", EnvVar, err)
		}
		return level, nil
	}
	if opts.Level != "" {
		return ParseLevel(opts.Level)
	}
	switch {
	case opts.Debug:
		return slog.LevelDebug, nil
	case opts.Quiet:
		return slog.LevelWarn, nil
	default:
		return slog.LevelInfo, nil
	}
}

// ParseLevel accepts debug, info, warn/warning and error, case-insensitively.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
