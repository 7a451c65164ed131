// Package ctxlog passes the run logger to the trainer and loaders through
// context.Context.
//
// Example:
//
//	ctx = ctxlog.WithLogger(ctx, logger.With("run_id", id))
//	ctxlog.FromContext(ctx).Info("Epoch finished.", "loss", loss)
package ctxlog

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored by WithLogger, or slog.Default()
// when ctx has none.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}
