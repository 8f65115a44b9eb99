package auth

import (
	"context"

	"github.com/accountd/accountd/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// identityKey is the context key for storing the authenticated Identity.
const identityKey contextKey = "identity"

// ContextWithIdentity adds an authenticated Identity to the context.
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext retrieves the Identity from the context.
// Returns nil if not present.
func IdentityFromContext(ctx context.Context) *model.Identity {
	identity, ok := ctx.Value(identityKey).(*model.Identity)
	if !ok {
		return nil
	}
	return identity
}

// MustIdentityFromContext retrieves the Identity from the context.
// Panics if not present (use only behind the auth middleware).
func MustIdentityFromContext(ctx context.Context) *model.Identity {
	identity := IdentityFromContext(ctx)
	if identity == nil {
		panic("identity not found in context - ensure auth middleware is applied")
	}
	return identity
}
