package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxSubject ctxKey = iota
	ctxClaims
)

// WithIdentity stores the authenticated subject and its claims.
func WithIdentity(ctx context.Context, subject string, claims Claims) context.Context {
	ctx = context.WithValue(ctx, ctxSubject, subject)
	ctx = context.WithValue(ctx, ctxClaims, claims)
	return ctx
}

func Subject(ctx context.Context) (string, error) {
	v := ctx.Value(ctxSubject)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("subject not in context")
}

func ClaimsFrom(ctx context.Context) (Claims, error) {
	if c, ok := ctx.Value(ctxClaims).(Claims); ok && len(c) > 0 {
		return c, nil
	}
	return nil, errors.New("claims not in context")
}

// Role returns the rol claim of the authenticated caller.
func Role(ctx context.Context) (string, error) {
	c, err := ClaimsFrom(ctx)
	if err != nil {
		return "", err
	}
	if r, ok := c.Get(ClaimRole); ok && r != "" {
		return r, nil
	}
	return "", errors.New("role not in context")
}
