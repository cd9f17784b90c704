package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityRoleAndPermissionChecks(t *testing.T) {
	id := &Identity{
		ID: "u1",
		Roles: []Role{
			{Name: "editor", IsEnabled: true},
			{Name: "admin", IsEnabled: false},
		},
		Permissions: []Permission{
			{Name: "book:write", IsEnabled: true, Effect: EffectAllow},
			{Name: "book:admin", IsEnabled: true, Effect: EffectDeny},
			{Name: "book:read", IsEnabled: false, Effect: EffectAllow},
		},
	}

	assert.True(t, id.HasEnabledRole("editor"))
	assert.False(t, id.HasEnabledRole("admin"), "disabled roles never grant")
	assert.False(t, id.HasEnabledRole("viewer"))

	assert.True(t, id.Permissions[0].Grants())
	assert.False(t, id.Permissions[1].Grants(), "deny effect never grants")
	assert.False(t, id.Permissions[2].Grants(), "disabled permission never grants")
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, IdentityFromContext(ctx))
	assert.Empty(t, AuthTypeFromContext(ctx))

	id := &Identity{ID: "u1"}
	ctx = ContextWithIdentity(ctx, id)
	ctx = ContextWithAuthType(ctx, AuthTypeBearer)

	assert.Same(t, id, IdentityFromContext(ctx))
	assert.Equal(t, AuthTypeBearer, AuthTypeFromContext(ctx))
}

func TestAuthenticatedRequiresSubject(t *testing.T) {
	_, ok := Authenticated(context.Background())
	assert.False(t, ok)

	_, ok = Authenticated(ContextWithIdentity(context.Background(), &Identity{}))
	assert.False(t, ok, "identity without subject is anonymous")

	id := &Identity{ID: "u1"}
	got, ok := Authenticated(ContextWithIdentity(context.Background(), id))
	assert.True(t, ok)
	assert.Same(t, id, got)
}
