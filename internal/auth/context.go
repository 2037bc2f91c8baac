// ABOUTME: Request-scoped identity for tool calls arriving over HTTP
// ABOUTME: Provides WithIdentity/FromContext for propagating the verified bearer token via context

package auth

import (
	"context"
)

// Identity is a caller whose bearer token was accepted by Mattermost.
type Identity struct {
	Token  string
	UserID string
}

// identityContextKey is the key type for storing Identity in context.Context.
type identityContextKey struct{}

// WithIdentity returns a new context with the Identity attached.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// FromContext retrieves the Identity from the context, returning nil if not present.
func FromContext(ctx context.Context) *Identity {
	id, ok := ctx.Value(identityContextKey{}).(*Identity)
	if !ok {
		return nil
	}
	return id
}

// TokenFromContext returns the verified token carried by ctx, or "".
func TokenFromContext(ctx context.Context) string {
	if id := FromContext(ctx); id != nil {
		return id.Token
	}
	return ""
}
