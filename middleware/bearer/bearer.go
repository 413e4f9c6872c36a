// Package bearer implements the per-request authentication filter. It runs
// before every handler, extracts the Authorization bearer token when one is
// present, and attaches the resolved identity to the request context.
//
// Authentication here is soft: a missing, malformed, expired or unresolvable
// token leaves the request anonymous and lets it proceed. Turning "no
// identity" into a rejection is the job of RequireAuth on protected routes.
package bearer

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/hbarros/changelog/auth"
)

// TokenValidator validates a raw token and returns its claims
type TokenValidator interface {
	Validate(token string) (auth.AuthClaims, error)
}

// IdentityResolver resolves a token subject to a stored identity
type IdentityResolver interface {
	FindIdentityByEmail(ctx context.Context, email string) (auth.Identity, error)
}

// Config holds the middleware collaborators
type Config struct {
	Validator TokenValidator
	Resolver  IdentityResolver
	Logger    auth.Logger
	// AuthScheme defaults to "Bearer"
	AuthScheme string
}

// New builds the soft authentication filter. The state machine is small:
// {NoToken, TokenPresent} x {Valid, Invalid} -> {Anonymous, Authenticated};
// only a valid token whose subject still resolves reaches Authenticated.
func New(cfg Config) fiber.Handler {
	if cfg.Validator == nil {
		panic("bearer: missing token validator")
	}
	if cfg.Resolver == nil {
		panic("bearer: missing identity resolver")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	scheme := cfg.AuthScheme
	if scheme == "" {
		scheme = "Bearer"
	}
	prefix := scheme + " "

	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" || !strings.HasPrefix(header, prefix) {
			// anonymous path, not a failure
			return c.Next()
		}

		raw := strings.TrimSpace(header[len(prefix):])

		claims, err := cfg.Validator.Validate(raw)
		if err != nil {
			if auth.IsAuthFailure(err) {
				logger.Debug("bearer token rejected", "path", c.Path(), "error", err)
				return c.Next()
			}
			// unexpected fault; do not mask it as anonymous
			return err
		}

		identity, err := cfg.Resolver.FindIdentityByEmail(c.UserContext(), claims.Subject())
		if err != nil {
			if auth.IsAuthFailure(err) {
				// subject deleted after issuance; proceed anonymously
				logger.Debug("bearer subject no longer resolves", "sub", claims.Subject())
				return c.Next()
			}
			return err
		}

		ctx := auth.WithIdentity(c.UserContext(), identity)
		ctx = auth.WithClaims(ctx, claims)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// RequireAuth rejects requests that reached this point without an identity.
// Mount it after New on every protected route.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := auth.IdentityFromContext(c.UserContext()); !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		return c.Next()
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
