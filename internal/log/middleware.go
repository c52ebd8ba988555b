package log

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// LoggerContextKey is the context key under which request-scoped
// loggers travel.
var LoggerContextKey = contextKey{}

// IntoContext returns a context carrying logger; FromContext retrieves
// it again further down the call chain.
func IntoContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the context, falling back to the
// process default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		base:      slog.Default(),
		component: ComponentApp,
	}
}
