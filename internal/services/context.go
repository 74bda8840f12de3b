package services

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authenticated caller as produced by the auth boundary.
type Principal struct {
	UserID uuid.UUID
	Role   string
}

type contextKey string

const principalKey contextKey = "principal"

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
