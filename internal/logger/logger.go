// Package logger builds the process-wide slog logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel accepts debug, info, warn/warning and error, case-insensitive.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}

// New returns a text logger writing to w at the given level. An unknown
// level falls back to info and is reported once through the new logger.
func New(level string, w io.Writer) *slog.Logger {
	lvl, err := ParseLevel(level)
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	if err != nil {
		l.Warn("falling back to info level", "error", err)
	}
	return l
}

// Named returns a logger tagged with a component name.
func Named(l *slog.Logger, component string) *slog.Logger {
	return l.With("component", component)
}
