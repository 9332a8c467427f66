// Package logger configures the process-wide slog logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level.
// Anything else is warn: the board is interactive and should stay quiet.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Init builds the process logger. An empty level falls back to
// IRIS_LOG_LEVEL. Output goes to stderr unless IRIS_LOG_SINK is
// "file:/path/to/log".
func Init(level string) *slog.Logger {
	if strings.TrimSpace(level) == "" {
		level = os.Getenv("IRIS_LOG_LEVEL")
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var w io.Writer = os.Stderr
	if sink := os.Getenv("IRIS_LOG_SINK"); strings.HasPrefix(sink, "file:") {
		path := strings.TrimPrefix(sink, "file:")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			fmt.Fprintf(os.Stderr, "iris: open log file %s: %v\n", path, err)
		} else {
			w = f
		}
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
