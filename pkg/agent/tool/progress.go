package tool

import "context"

// ProgressFunc receives a short trace line each time a tool starts working
type ProgressFunc func(ctx context.Context, toolName, message string)

type contextKey struct{}

// WithProgress returns a new context that carries fn
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, contextKey{}, fn)
}

// Progress reports message through the ProgressFunc stored in ctx. It is a
// no-op when ctx carries none.
func Progress(ctx context.Context, toolName, message string) {
	if fn, ok := ctx.Value(contextKey{}).(ProgressFunc); ok && fn != nil {
		fn(ctx, toolName, message)
	}
}
