// Package ctxkeys holds the shared context keys for the API layer.
// Extracted to a leaf package to avoid import cycles between api and
// api/middleware; the named key type prevents collisions with plain string
// keys from other packages (context.Value compares type and value).
package ctxkeys

import "context"

// Key is the unexported named type for all API context keys.
type Key string

const (
	// UserID is the context key for the authenticated chat user.
	// Injected by AuthMiddleware from JWT claims.
	UserID Key = "user_id"

	// Admin marks tokens allowed to mutate the plugin registry.
	Admin Key = "admin"
)

// WithValue adds a ctxkeys.Key value to the context.
func WithValue(ctx context.Context, key Key, value any) context.Context {
	return context.WithValue(ctx, key, value)
}
