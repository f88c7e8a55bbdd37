package middleware

import (
	"context"

	pkgauth "github.com/jmamani/cooperativa-backend/pkg/auth"
)

type contextKey string

const ctxClaims contextKey = "claims"

// ClaimsFromContext returns the verified token claims seeded by Auth.
func ClaimsFromContext(ctx context.Context) *pkgauth.AccessTokenClaims {
	if ctx == nil {
		return nil
	}
	if claims, ok := ctx.Value(ctxClaims).(*pkgauth.AccessTokenClaims); ok {
		return claims
	}
	return nil
}

// WithClaims injects verified claims into the context.
func WithClaims(ctx context.Context, claims *pkgauth.AccessTokenClaims) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxClaims, claims)
}
