// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// SystemActor is recorded when no user code is attached to the context.
const SystemActor = "system"

// ActorKey is the context key for the acting user code.
// Exported so it can be used consistently across packages.
type ActorKey struct{}

// WithActor returns a context with the acting user code embedded.
func WithActor(ctx context.Context, userCode string) context.Context {
	return context.WithValue(ctx, ActorKey{}, userCode)
}

// ActorFromContext returns the user code from context, or empty string if not set.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ActorKey{}).(string); ok {
		return v
	}
	return ""
}

// ActorOrSystem returns the user code from context, falling back to SystemActor.
func ActorOrSystem(ctx context.Context) string {
	if actor := ActorFromContext(ctx); actor != "" {
		return actor
	}
	return SystemActor
}
