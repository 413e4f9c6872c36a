package auth

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Logger is the structured logging contract the core consumes. Callers pass
// a message followed by alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Email() string
	Role() string
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Register(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	IdentityFromSubject(ctx context.Context, subject string) (Identity, error)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetTokenTTLMinutes() int
}

// IdentityProvider ensure we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, email, password string) (Identity, error)
	FindIdentityByEmail(ctx context.Context, email string) (Identity, error)
}

// TokenService issues and validates the signed bearer credentials
type TokenService interface {
	Generate(identity Identity) (string, error)
	Validate(token string) (AuthClaims, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

// defLogOutput is swapped in tests
var defLogOutput io.Writer = os.Stdout

func (d defLogger) Error(msg string, args ...any) { d.print("ERR", msg, args) }
func (d defLogger) Warn(msg string, args ...any)  { d.print("WRN", msg, args) }
func (d defLogger) Info(msg string, args ...any)  { d.print("INF", msg, args) }
func (d defLogger) Debug(msg string, args ...any) { d.print("DBG", msg, args) }

func (defLogger) print(level, msg string, args []any) {
	fmt.Fprintln(defLogOutput, append([]any{"[" + level + "] AUTH " + msg}, args...)...)
}
