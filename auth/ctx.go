package auth

import (
	"context"
)

var identityCtxKey = &contextKey{"identity"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithIdentity sets the Identity in the given context. The association lives
// only as long as the request's context; nothing is stored globally.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromContext finds the identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	raw, ok := ctx.Value(identityCtxKey).(Identity)
	return raw, ok
}

// WithClaims sets the AuthClaims in the given context
func WithClaims(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// ClaimsFromContext extracts the AuthClaims from the context
func ClaimsFromContext(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}
