package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the validated claim set carried by a bearer token
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	Issuer() string
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims. The subject is the
// user's normalized email; uid carries the user's UUID.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid,omitempty"`
	UserRole string `json:"role,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Role returns the role claim
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// Issuer returns the issuer claim
func (c *JWTClaims) Issuer() string {
	return c.RegisteredClaims.Issuer
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
