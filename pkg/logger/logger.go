package logger

import (
	"context"
	"log/slog"
	"os"
)

// New returns a JSON structured logger. Level tracks the deploy environment
// so local runs get debug output without a separate flag.
func New(appEnv string) *slog.Logger {
	level := slog.LevelInfo
	if appEnv == "local" || appEnv == "dev" {
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}

// ForRun tags a logger with the identifiers of one sync pass so every line
// it emits can be correlated with the persisted run record.
func ForRun(l *slog.Logger, runID, scope string) *slog.Logger {
	return l.With("run_id", runID, "scope", scope)
}
