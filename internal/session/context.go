// Package session propagates the scan session id through request contexts.
// The transport stamps it on outgoing requests and trace records so the
// store-side task view and client-side traces can be correlated per scan.
package session

import "context"

// Header is the request header carrying the session id. The store echoes
// it into its task management and slow logs.
const Header = "X-Opaque-Id"

// idKey is the unexported context key for the session id.
type idKey struct{}

// WithID returns a new context with the session id stored.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idKey{}, id)
}

// IDFromContext retrieves the session id if present.
// Returns ("", false) if no session id is set.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(idKey{}).(string)
	return id, ok
}
