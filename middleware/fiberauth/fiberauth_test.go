package fiberauth_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/middleware/fiberauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubIdentity struct {
	id   string
	role identity.UserRole
}

func (s stubIdentity) ID() string               { return s.id }
func (s stubIdentity) Username() string         { return "jane" }
func (s stubIdentity) Email() string            { return "jane@example.com" }
func (s stubIdentity) Role() identity.UserRole  { return s.role }
func (s stubIdentity) MustChangePassword() bool { return false }

type mockGuard struct {
	mock.Mock
}

func (m *mockGuard) Authenticate(ctx context.Context, rawToken string) (identity.Identity, error) {
	args := m.Called(ctx, rawToken)
	if ident, ok := args.Get(0).(identity.Identity); ok {
		return ident, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGuard) RequireRole(ident identity.Identity, role identity.UserRole) error {
	args := m.Called(ident, role)
	return args.Error(0)
}

func newApp(handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(handler)
	app.Get("/protected", func(c *fiber.Ctx) error {
		ident := fiberauth.IdentityFromCtx(c)
		if ident == nil {
			return c.Status(fiber.StatusInternalServerError).SendString("no identity")
		}

		if _, ok := identity.FromContext(c.UserContext()); !ok {
			return c.Status(fiber.StatusInternalServerError).SendString("no context identity")
		}

		return c.SendString(ident.ID())
	})
	return app
}

func TestMiddlewareAllowsValidToken(t *testing.T) {
	guard := &mockGuard{}
	guard.On("Authenticate", mock.Anything, "good-token").
		Return(stubIdentity{id: "user-1", role: identity.RoleUser}, nil).Once()

	app := newApp(fiberauth.New(fiberauth.Config{Authenticator: guard}))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer good-token")

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	body, _ := io.ReadAll(res.Body)
	assert.Equal(t, "user-1", string(body))

	guard.AssertExpectations(t)
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	guard := &mockGuard{}

	app := newApp(fiberauth.New(fiberauth.Config{Authenticator: guard}))

	req := httptest.NewRequest("GET", "/protected", nil)

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	guard.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
}

func TestMiddlewareRejectsInvalidToken(t *testing.T) {
	guard := &mockGuard{}
	guard.On("Authenticate", mock.Anything, "bad-token").
		Return(nil, identity.ErrTokenExpired).Once()

	app := newApp(fiberauth.New(fiberauth.Config{Authenticator: guard}))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer bad-token")

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestMiddlewareEnforcesRequiredRole(t *testing.T) {
	member := stubIdentity{id: "user-2", role: identity.RoleUser}

	guard := &mockGuard{}
	guard.On("Authenticate", mock.Anything, "member-token").
		Return(member, nil).Once()
	guard.On("RequireRole", member, identity.RoleAdmin).
		Return(identity.ErrForbidden).Once()

	app := newApp(fiberauth.RequireAdmin(fiberauth.Config{Authenticator: guard}))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer member-token")

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)

	guard.AssertExpectations(t)
}

func TestMiddlewareFilterSkipsAuthentication(t *testing.T) {
	guard := &mockGuard{}

	app := fiber.New()
	app.Use(fiberauth.New(fiberauth.Config{
		Authenticator: guard,
		Filter: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz"
		},
	}))
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	req := httptest.NewRequest("GET", "/healthz", nil)

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	guard.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
}

func TestMiddlewareCookieLookup(t *testing.T) {
	guard := &mockGuard{}
	guard.On("Authenticate", mock.Anything, "cookie-token").
		Return(stubIdentity{id: "user-3", role: identity.RoleUser}, nil).Once()

	app := newApp(fiberauth.New(fiberauth.Config{
		Authenticator: guard,
		TokenLookup:   "cookie:token",
	}))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "cookie-token"})

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	guard.AssertExpectations(t)
}
