package auth

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidCredentials = "INVALID_CREDENTIALS"
	textCodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	textCodeRegistrationClosed = "REGISTRATION_CLOSED"
	textCodeTokenExpired       = "TOKEN_EXPIRED"
	textCodeTokenMalformed     = "TOKEN_MALFORMED"
	textCodeIdentityNotFound   = "IDENTITY_NOT_FOUND"
)

// ErrInvalidCredentials covers both an unknown email and a wrong password,
// so callers cannot enumerate accounts from the response.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrEmailAlreadyExists is returned when registering an email that is taken.
var ErrEmailAlreadyExists = goerrors.New("email already exists", goerrors.CategoryConflict).
	WithTextCode(textCodeEmailAlreadyExists).
	WithCode(goerrors.CodeConflict)

// ErrRegistrationClosed is returned once the bootstrap account exists.
// Self-service signup is a one-shot gate, not a generally open endpoint.
var ErrRegistrationClosed = goerrors.New("no longer accepting new users", goerrors.CategoryAuth).
	WithTextCode(textCodeRegistrationClosed).
	WithCode(goerrors.CodeForbidden)

// ErrTokenExpired is returned when a token's exp claim has passed.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed covers every non-expiry validation failure: bad
// signature, wrong algorithm, garbled structure, issuer mismatch.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrIdentityNotFound is returned when a token validates but its subject no
// longer resolves to a stored user.
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeIdentityNotFound).
	WithCode(goerrors.CodeNotFound)

// IsAuthFailure reports whether err belongs to the authentication taxonomy
// the bearer middleware is allowed to swallow into an anonymous request.
// Anything else is a real server fault and must propagate.
func IsAuthFailure(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrIdentityNotFound) ||
		goerrors.IsNotFound(err)
}
