package identity

import (
	"context"
)

// Guard performs per-request identity resolution and role gating. Every
// protected operation runs through it before touching domain data.
type Guard struct {
	tokenService TokenService
	provider     IdentityProvider
	logger       Logger
}

// NewGuard returns a Guard wired to a token service built from the given
// configuration.
func NewGuard(provider IdentityProvider, opts Config) *Guard {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Guard{
		tokenService: tokenService,
		provider:     provider,
		logger:       defLogger{},
	}
}

func (g *Guard) WithLogger(logger Logger) *Guard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// WithTokenService overrides the token service, mostly useful in tests and
// for sharing one instance with an Auther.
func (g *Guard) WithTokenService(ts TokenService) *Guard {
	if ts != nil {
		g.tokenService = ts
	}
	return g
}

// Authenticate validates a raw token and re-resolves its subject in the
// credential store. The re-check means a token for a since-deleted or
// deactivated account is rejected for any request that reaches the store; it
// does not shorten the token's cryptographic validity, so callers relying on
// token validity alone keep the full TTL window.
func (g *Guard) Authenticate(ctx context.Context, rawToken string) (Identity, error) {
	claims, err := g.tokenService.Validate(rawToken)
	if err != nil {
		g.logger.Debug("Authenticate token validation failed", "error", err)
		return nil, err
	}

	identity, err := g.provider.FindIdentityByID(ctx, claims.UserID())
	if err != nil {
		g.logger.Warn("Authenticate subject no longer resolvable", "user_id", claims.UserID(), "error", err)
		return nil, err
	}

	return identity, nil
}

// RequireRole fails with ErrForbidden unless the identity carries exactly the
// demanded role. The role switch is exhaustive on purpose: an unknown role is
// never permissive.
func (g *Guard) RequireRole(identity Identity, role UserRole) error {
	if identity == nil {
		return ErrForbidden
	}

	switch role {
	case RoleAdmin, RoleUser:
		// demanded role is part of the closed set
	default:
		return ErrInvalidRole
	}

	switch identity.Role() {
	case role:
		return nil
	case RoleAdmin, RoleUser:
		return ErrForbidden
	default:
		return ErrForbidden
	}
}

// RequireAdmin gates the user administration operations.
func (g *Guard) RequireAdmin(identity Identity) error {
	return g.RequireRole(identity, RoleAdmin)
}

// RequireAuthenticated accepts any identity with a valid role; member-level
// operations use it.
func (g *Guard) RequireAuthenticated(identity Identity) error {
	if identity == nil {
		return ErrForbidden
	}

	switch identity.Role() {
	case RoleAdmin, RoleUser:
		return nil
	default:
		return ErrForbidden
	}
}
