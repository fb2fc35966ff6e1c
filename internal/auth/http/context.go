// Package http provides HTTP handlers and middleware for authentication and authorization.
package http

import (
	"context"

	userDomain "github.com/allisson/gatekeeper/internal/user/domain"
)

// userKey is a context key type for storing the authenticated user.
type userKey struct{}

// permissionKey is a context key type for storing the permission that granted access.
type permissionKey struct{}

// WithUser stores the authenticated user in the context.
// This is called by AuthenticationMiddleware after the access token validates.
func WithUser(ctx context.Context, user *userDomain.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser retrieves the authenticated user from the context.
// Returns (user, true) if a user is present, or (nil, false) otherwise.
func GetUser(ctx context.Context) (*userDomain.User, bool) {
	user, ok := ctx.Value(userKey{}).(*userDomain.User)
	return user, ok && user != nil
}

// WithPermission stores the permission code that authorized the request.
func WithPermission(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, permissionKey{}, code)
}

// GetPermission retrieves the permission code that authorized the request.
func GetPermission(ctx context.Context) (string, bool) {
	code, ok := ctx.Value(permissionKey{}).(string)
	return code, ok
}
