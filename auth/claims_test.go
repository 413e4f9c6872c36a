package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/hbarros/changelog/auth"
)

func TestJWTClaims(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	exp := now.Add(time.Hour)

	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "changelog-api",
			Subject:   "user@example.com",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UID:      "a-uuid",
		UserRole: auth.RoleUser,
	}

	assert.Equal(t, "user@example.com", claims.Subject())
	assert.Equal(t, "a-uuid", claims.UserID())
	assert.Equal(t, auth.RoleUser, claims.Role())
	assert.Equal(t, "changelog-api", claims.Issuer())
	assert.True(t, claims.IssuedAt().Equal(now))
	assert.True(t, claims.Expires().Equal(exp))
}

func TestJWTClaimsUserIDFallsBackToSubject(t *testing.T) {
	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user@example.com"},
	}
	assert.Equal(t, "user@example.com", claims.UserID())
}

func TestJWTClaimsZeroTimestamps(t *testing.T) {
	claims := &auth.JWTClaims{}
	assert.True(t, claims.Expires().IsZero())
	assert.True(t, claims.IssuedAt().IsZero())
}
