package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// RoleUser is the single role every account carries. The system has no
// permission hierarchy; the claim exists so tokens stay self-describing.
const RoleUser = "USER"

var _ TokenService = (*TokenServiceImpl)(nil)

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	ttlMinutes int
	issuer     string
	logger     Logger
	now        func() time.Time
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, ttlMinutes int, issuer string, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenServiceImpl{
		signingKey: signingKey,
		ttlMinutes: ttlMinutes,
		issuer:     issuer,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Tests use it to force expiry.
func (ts *TokenServiceImpl) WithClock(now func() time.Time) *TokenServiceImpl {
	if now != nil {
		ts.now = now
	}
	return ts
}

// Generate creates a signed HS256 token for the given identity. The subject
// is the identity's email, uid carries its ID, exp is issued-at plus the
// configured TTL.
func (ts *TokenServiceImpl) Generate(identity Identity) (string, error) {
	if identity == nil {
		return "", goerrors.New("identity is required", goerrors.CategoryBadInput)
	}

	now := ts.now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.Email(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ts.ttlMinutes) * time.Minute)),
		},
		UID:      identity.ID(),
		UserRole: identity.Role(),
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured claims.
// It rejects non-HMAC signing methods, issuer mismatches, bad signatures and
// expired tokens. No state is touched; the result depends only on the token,
// the key and the clock.
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode claims")
	return nil, ErrTokenMalformed
}
