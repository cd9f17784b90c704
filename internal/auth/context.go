package auth

import (
	"context"
)

type contextKey int

const (
	identityKey contextKey = iota
	authTypeKey
)

// AuthType names the mechanism that authenticated a request
type AuthType string

const (
	// AuthTypeBearer is an Authorization: Bearer token issued by the identity provider
	AuthTypeBearer AuthType = "bearer"
)

// ContextWithIdentity returns a copy of ctx carrying identity
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the identity stored in ctx, or nil
func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityKey).(*Identity)
	return identity
}

// Authenticated returns the caller identity when ctx carries one with a subject
func Authenticated(ctx context.Context) (*Identity, bool) {
	identity := IdentityFromContext(ctx)
	if identity == nil || identity.ID == "" {
		return nil, false
	}
	return identity, true
}

// ContextWithAuthType returns a copy of ctx recording how the caller authenticated
func ContextWithAuthType(ctx context.Context, authType AuthType) context.Context {
	return context.WithValue(ctx, authTypeKey, authType)
}

// AuthTypeFromContext returns the recorded mechanism, or "" for anonymous requests
func AuthTypeFromContext(ctx context.Context) AuthType {
	authType, _ := ctx.Value(authTypeKey).(AuthType)
	return authType
}
