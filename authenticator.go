package identity

import (
	"context"
	"reflect"

	goerrors "github.com/goliatone/go-errors"
)

// Auther drives the login workflow: identifier lookup, password check,
// active check, token issuance, and the best-effort last-login stamp.
type Auther struct {
	provider     IdentityProvider
	tokenService TokenService
	passwords    *ChangePasswordHandler
	logger       Logger
}

// NewAuthenticator returns a new Auther wired to a token service built from
// the given configuration.
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithTokenService overrides the token service, mostly useful in tests.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// WithPasswordChanger enables the self-service ChangePassword workflow.
func (s *Auther) WithPasswordChanger(h *ChangePasswordHandler) *Auther {
	if h != nil {
		s.passwords = h
	}
	return s
}

// TokenService returns the TokenService instance used by this Auther.
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the identifier/password pair and returns a signed token.
// Every rejection surfaces as ErrInvalidCredentials. On success the user's
// last_login_at is stamped best-effort: a failed stamp is logged and the
// login still succeeds.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	token, _, err := s.LoginIdentity(ctx, identifier, password)
	return token, err
}

// LoginIdentity behaves like Login but also returns the resolved identity so
// transports can surface advisory fields such as MustChangePassword without
// a second round trip.
func (s *Auther) LoginIdentity(ctx context.Context, identifier, password string) (string, Identity, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return "", nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("Login token generation error", "error", err)
		return "", nil, err
	}

	if tracker, ok := s.provider.(LoginTracker); ok {
		if err := tracker.TrackLogin(ctx, identity); err != nil {
			s.logger.Error("Login failed to track last login", "error", err, "user_id", identity.ID())
		}
	}

	return token, identity, nil
}

// ChangePassword swaps the secret for an already authenticated identity. The
// current password is re-verified even though the caller holds a valid token.
func (s *Auther) ChangePassword(ctx context.Context, identity Identity, currentPassword, newPassword string) error {
	if s.passwords == nil {
		return goerrors.New(
			"password changes are not configured",
			goerrors.CategoryOperation,
		)
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		return ErrInvalidCredentials
	}

	return s.passwords.Execute(ctx, ChangePasswordMessage{
		UserID:          identity.ID(),
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	})
}
