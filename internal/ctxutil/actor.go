// Package ctxutil carries the authenticated user through a context.
// It has no internal dependencies so every layer can import it.
package ctxutil

import "context"

type actorKey struct{}

type requestIDKey struct{}

// WithActorID returns a context carrying the acting user's ID.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFromContext returns the acting user's ID, or "" if the context is
// anonymous.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok {
		return v
	}
	return ""
}

// WithRequestID returns a context carrying an HTTP request ID for log
// correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}
