package taskauth

import (
	"context"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

var userCtxKey = &contextKey{"user"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithClaimsContext sets the TokenClaims in the given context
func WithClaimsContext(r context.Context, claims *TokenClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the TokenClaims from the standard context
func GetClaims(ctx context.Context) (*TokenClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(*TokenClaims)
	return raw, ok
}

// GetRouterClaims extracts the TokenClaims from the router context
func GetRouterClaims(ctx router.Context, key string) (*TokenClaims, bool) {
	if key == "" {
		key = "user" // Default key used by JWT middleware
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(*TokenClaims)
	return claims, ok
}

// GetRouterUser extracts the authenticated User loaded by the middleware
func GetRouterUser(ctx router.Context, key string) (*User, bool) {
	if key == "" {
		key = "user"
	}
	raw := ctx.Locals(key + ":record")
	if raw == nil {
		return nil, false
	}
	user, ok := raw.(*User)
	return user, ok
}

// UserIDFromRouter returns the authenticated user's id from the router context
func UserIDFromRouter(ctx router.Context, key string) (uuid.UUID, bool) {
	if user, ok := GetRouterUser(ctx, key); ok {
		return user.ID, true
	}

	claims, ok := GetRouterClaims(ctx, key)
	if !ok {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}
