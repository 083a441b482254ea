package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// EnsureTraceID returns ctx unchanged when it already carries a trace id,
// otherwise ctx with a new uuid trace id
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, uuid.New().String())
}

// TraceID returns the id set by WithTraceID, falling back to the trace id of
// the active OpenTelemetry span
func TraceID(ctx context.Context) string {
	if id := GetTraceID(ctx); id != "" {
		return id
	}
	if ctx == nil {
		return ""
	}
	return TraceIDFromContext(ctx)
}

// WithComponent tags logger with a component name.
// A nil logger falls back to the global logger.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	return logger.With("component", component)
}
