// Package fiberauth mounts the identity guard as Fiber middleware. It
// extracts the raw token from the request, resolves the caller through the
// guard, and stores the resulting identity in the request locals and the
// request's standard context.
package fiberauth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-identity"
)

var ErrTokenMissingOrMalformed = errors.New("missing or malformed token")

// Authenticator mirrors the guard surface the middleware needs. identity.Guard
// satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (identity.Identity, error)
	RequireRole(ident identity.Identity, role identity.UserRole) error
}

type Config struct {
	// Authenticator is required.
	Authenticator Authenticator

	// Filter skips the middleware for matching requests.
	Filter func(*fiber.Ctx) bool

	SuccessHandler fiber.Handler
	ErrorHandler   fiber.ErrorHandler

	// ContextKey is the locals key the resolved identity is stored under.
	ContextKey string

	// TokenLookup is a comma separated list of <source>:<name> pairs, e.g.
	// "header:Authorization,cookie:token,query:token".
	TokenLookup string
	AuthScheme  string

	// RequiredRole, when set, rejects callers without exactly that role.
	RequiredRole identity.UserRole
}

func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)
	extractors := cfg.getExtractors()

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := extractRawToken(c, extractors)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		ident, err := cfg.Authenticator.Authenticate(c.UserContext(), raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		if cfg.RequiredRole != "" {
			if err := cfg.Authenticator.RequireRole(ident, cfg.RequiredRole); err != nil {
				return cfg.ErrorHandler(c, err)
			}
		}

		c.Locals(cfg.ContextKey, ident)
		c.SetUserContext(identity.WithContext(c.UserContext(), ident))

		return cfg.SuccessHandler(c)
	}
}

// RequireAdmin is New with the admin role demanded.
func RequireAdmin(config ...Config) fiber.Handler {
	cfg := configDefault(config...)
	cfg.RequiredRole = identity.RoleAdmin
	return New(cfg)
}

// IdentityFromCtx returns the identity a prior New handler stored, or nil.
func IdentityFromCtx(c *fiber.Ctx) identity.Identity {
	return IdentityFromCtxKey(c, defaultContextKey)
}

func IdentityFromCtxKey(c *fiber.Ctx, key string) identity.Identity {
	ident, ok := c.Locals(key).(identity.Identity)
	if !ok {
		return nil
	}
	return ident
}

const (
	defaultContextKey  = "identity"
	defaultTokenLookup = "header:" + fiber.HeaderAuthorization
	defaultAuthScheme  = "Bearer"
)

func configDefault(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Authenticator == nil {
		panic("fiberauth: Authenticator is required")
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = defaultContextKey
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = defaultAuthScheme
	}

	return cfg
}

func defaultErrorHandler(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrTokenMissingOrMalformed):
		return c.Status(fiber.StatusBadRequest).SendString(ErrTokenMissingOrMalformed.Error())
	case errors.Is(err, identity.ErrForbidden), errors.Is(err, identity.ErrInvalidRole):
		return c.Status(fiber.StatusForbidden).SendString("insufficient role")
	default:
		return c.Status(fiber.StatusUnauthorized).SendString("invalid or expired token")
	}
}

type tokenExtractor func(*fiber.Ctx) (string, error)

func extractRawToken(c *fiber.Ctx, extractors []tokenExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(c)
		if raw != "" && err == nil {
			return raw, nil
		}
	}

	return raw, err
}

func (cfg *Config) getExtractors() []tokenExtractor {
	extractors := make([]tokenExtractor, 0)

	// header:Authorization,cookie:token,query:token
	for _, rootPart := range strings.Split(cfg.TokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}

		name := strings.TrimSpace(parts[1])
		switch strings.TrimSpace(parts[0]) {
		case "header":
			extractors = append(extractors, tokenFromHeader(name, cfg.AuthScheme))
		case "query":
			extractors = append(extractors, tokenFromQuery(name))
		case "param":
			extractors = append(extractors, tokenFromParam(name))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(name))
		}
	}

	if len(extractors) == 0 {
		extractors = append(extractors, tokenFromHeader(fiber.HeaderAuthorization, cfg.AuthScheme))
	}

	return extractors
}

func tokenFromHeader(header, authScheme string) tokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		a := c.Get(header)
		scheme := strings.TrimSpace(authScheme)
		l := len(scheme)
		if l == 0 {
			return "", ErrTokenMissingOrMalformed
		}
		if len(a) > l+1 && strings.EqualFold(a[:l], scheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrTokenMissingOrMalformed
	}
}

func tokenFromQuery(param string) tokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", ErrTokenMissingOrMalformed
		}
		return token, nil
	}
}

func tokenFromParam(param string) tokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Params(param)
		if token == "" {
			return "", ErrTokenMissingOrMalformed
		}
		return token, nil
	}
}

func tokenFromCookie(name string) tokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrTokenMissingOrMalformed
		}
		return token, nil
	}
}
