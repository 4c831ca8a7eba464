package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxClaims ctxKey = iota
)

var errNoIdentity = errors.New("identity not in context")

func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, ctxClaims, claims)
}

func ClaimsFrom(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(ctxClaims).(Claims)
	return c, ok && c.UserID != ""
}

func IdentityFrom(ctx context.Context) (Identity, error) {
	c, ok := ClaimsFrom(ctx)
	if !ok {
		return Identity{}, errNoIdentity
	}
	return c.Identity, nil
}
