package identity_test

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardAuthenticate(t *testing.T) {
	ctx := context.Background()

	ident := TestIdentity{
		id:       "c0a80101-0000-4000-8000-000000000020",
		username: "jane",
		role:     identity.RoleAdmin,
	}

	issue := func(t *testing.T) string {
		t.Helper()
		ts := identity.NewTokenService(
			[]byte("test-signing-key"), 1, "test-issuer",
			jwt.ClaimStrings{"test-audience"}, testLogger{},
		)
		token, err := ts.Generate(ident)
		require.NoError(t, err)
		return token
	}

	t.Run("resolves a valid token against the store", func(t *testing.T) {
		provider := &MockIdentityProvider{}
		provider.On("FindIdentityByID", ctx, ident.id).
			Return(ident, nil).Once()

		guard := identity.NewGuard(provider, newTestConfig()).
			WithLogger(testLogger{})

		resolved, err := guard.Authenticate(ctx, issue(t))

		require.NoError(t, err)
		assert.Equal(t, ident.id, resolved.ID())
		assert.Equal(t, identity.RoleAdmin, resolved.Role())

		provider.AssertExpectations(t)
	})

	t.Run("rejects tokens for deleted subjects", func(t *testing.T) {
		provider := &MockIdentityProvider{}
		provider.On("FindIdentityByID", ctx, ident.id).
			Return(nil, identity.ErrUserNotFound).Once()

		guard := identity.NewGuard(provider, newTestConfig()).
			WithLogger(testLogger{})

		resolved, err := guard.Authenticate(ctx, issue(t))

		assert.Nil(t, resolved)
		assert.ErrorIs(t, err, identity.ErrUserNotFound)
	})

	t.Run("rejects tokens for deactivated subjects", func(t *testing.T) {
		provider := &MockIdentityProvider{}
		provider.On("FindIdentityByID", ctx, ident.id).
			Return(nil, identity.ErrUserInactive).Once()

		guard := identity.NewGuard(provider, newTestConfig()).
			WithLogger(testLogger{})

		resolved, err := guard.Authenticate(ctx, issue(t))

		assert.Nil(t, resolved)
		assert.ErrorIs(t, err, identity.ErrUserInactive)
	})

	t.Run("rejects malformed tokens without touching the store", func(t *testing.T) {
		provider := &MockIdentityProvider{}

		guard := identity.NewGuard(provider, newTestConfig()).
			WithLogger(testLogger{})

		resolved, err := guard.Authenticate(ctx, "garbage")

		assert.Nil(t, resolved)
		assert.True(t, identity.IsMalformedError(err))
		provider.AssertNotCalled(t, "FindIdentityByID")
	})

	t.Run("rejects tokens signed with another key", func(t *testing.T) {
		other := identity.NewTokenService(
			[]byte("other-key"), 1, "test-issuer",
			jwt.ClaimStrings{"test-audience"}, testLogger{},
		)
		token, err := other.Generate(ident)
		require.NoError(t, err)

		provider := &MockIdentityProvider{}
		guard := identity.NewGuard(provider, newTestConfig()).
			WithLogger(testLogger{})

		resolved, err := guard.Authenticate(ctx, token)

		assert.Nil(t, resolved)
		assert.Error(t, err)
		provider.AssertNotCalled(t, "FindIdentityByID")
	})
}

func TestGuardRequireRole(t *testing.T) {
	guard := identity.NewGuard(&MockIdentityProvider{}, newTestConfig())

	admin := TestIdentity{id: "a", role: identity.RoleAdmin}
	member := TestIdentity{id: "m", role: identity.RoleUser}
	unknown := TestIdentity{id: "u", role: identity.UserRole("owner")}

	t.Run("matching role passes", func(t *testing.T) {
		assert.NoError(t, guard.RequireRole(admin, identity.RoleAdmin))
		assert.NoError(t, guard.RequireRole(member, identity.RoleUser))
	})

	t.Run("mismatched role is forbidden", func(t *testing.T) {
		assert.ErrorIs(t, guard.RequireRole(member, identity.RoleAdmin), identity.ErrForbidden)
		assert.ErrorIs(t, guard.RequireRole(admin, identity.RoleUser), identity.ErrForbidden)
	})

	t.Run("nil identity is forbidden", func(t *testing.T) {
		assert.ErrorIs(t, guard.RequireRole(nil, identity.RoleAdmin), identity.ErrForbidden)
	})

	t.Run("unknown demanded role is rejected", func(t *testing.T) {
		assert.ErrorIs(t, guard.RequireRole(admin, identity.UserRole("owner")), identity.ErrInvalidRole)
	})

	t.Run("unknown identity role is never permissive", func(t *testing.T) {
		assert.ErrorIs(t, guard.RequireRole(unknown, identity.RoleAdmin), identity.ErrForbidden)
	})
}

func TestGuardRequireAdmin(t *testing.T) {
	guard := identity.NewGuard(&MockIdentityProvider{}, newTestConfig())

	assert.NoError(t, guard.RequireAdmin(TestIdentity{id: "a", role: identity.RoleAdmin}))
	assert.ErrorIs(t, guard.RequireAdmin(TestIdentity{id: "m", role: identity.RoleUser}), identity.ErrForbidden)
	assert.ErrorIs(t, guard.RequireAdmin(nil), identity.ErrForbidden)
}

func TestGuardRequireAuthenticated(t *testing.T) {
	guard := identity.NewGuard(&MockIdentityProvider{}, newTestConfig())

	assert.NoError(t, guard.RequireAuthenticated(TestIdentity{id: "a", role: identity.RoleAdmin}))
	assert.NoError(t, guard.RequireAuthenticated(TestIdentity{id: "m", role: identity.RoleUser}))
	assert.ErrorIs(t, guard.RequireAuthenticated(nil), identity.ErrForbidden)
	assert.ErrorIs(t, guard.RequireAuthenticated(TestIdentity{id: "u", role: identity.UserRole("owner")}), identity.ErrForbidden)
}
