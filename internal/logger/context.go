package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// Into returns a child context carrying the given logger. The HTTP layer
// stores a request-id-tagged logger here so handlers log with it.
func Into(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the logger stored in ctx, or a nop logger when none is.
func From(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
