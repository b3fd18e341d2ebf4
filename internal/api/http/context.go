package http

import (
	"context"
	"net/http"

	"warehub-backend/internal/security"
)

type claimsKey struct{}

func withClaims(ctx context.Context, c *security.UserClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the caller set by the auth middleware, or nil on public routes.
func ClaimsFromContext(ctx context.Context) *security.UserClaims {
	c, _ := ctx.Value(claimsKey{}).(*security.UserClaims)
	return c
}

// caller returns the authenticated user. Routes behind the auth middleware always have one.
func caller(r *http.Request) *security.UserClaims {
	if c := ClaimsFromContext(r.Context()); c != nil {
		return c
	}
	return &security.UserClaims{}
}
