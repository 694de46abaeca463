// Package logger provides structured logging setup using slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// runIDKey is the context key for miner run IDs.
type runIDKey struct{}

// New creates a new structured JSON logger writing to stderr.
// Stdout stays free for mirrored miner output in headless mode.
func New() *slog.Logger {
	return NewWithWriter(os.Stderr, slog.LevelInfo)
}

// NewWithWriter creates a logger writing to w at the given level.
func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// Discard returns a logger that drops everything. The TUI uses it so
// log output cannot corrupt the alternate screen.
func Discard() *slog.Logger {
	return NewWithWriter(io.Discard, slog.LevelError)
}

// Component returns a child logger scoped to a subsystem name.
func Component(base *slog.Logger, name string) *slog.Logger {
	return base.With("component", name)
}

// WithRunID returns a new context carrying the ID of a miner launch.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext extracts the run ID from the context.
func RunIDFromContext(ctx context.Context) string {
	if v := ctx.Value(runIDKey{}); v != nil {
		return v.(string)
	}
	return ""
}

// FromContext returns a logger with context fields (run ID, etc.) attached.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if runID := RunIDFromContext(ctx); runID != "" {
		return base.With("run_id", runID)
	}
	return base
}
