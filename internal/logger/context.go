package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ContextWithLogger stores a logger in the context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts a logger from the context.
// Returns zap.NewNop() if no logger is found.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// ForQuery returns the context logger scoped to one query set evaluation.
// Request fields placed by the HTTP layer (request_id) are kept.
func ForQuery(ctx context.Context, kind string, fingerprint uint64) *zap.Logger {
	l := FromContext(ctx)
	if !l.Core().Enabled(zap.DebugLevel) {
		return l
	}
	return l.With(zap.String("kind", kind), zap.Uint64("fingerprint", fingerprint))
}
