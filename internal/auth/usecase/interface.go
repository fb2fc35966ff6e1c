// Package usecase defines business logic interfaces for authentication and authorization operations.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	userDomain "github.com/allisson/gatekeeper/internal/user/domain"
)

// UserRepository is the subset of user persistence the credential flows need.
type UserRepository interface {
	// GetByID returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error)

	// GetByEmail returns ErrUserNotFound if no user has the email.
	GetByEmail(ctx context.Context, email string) (*userDomain.User, error)

	// TouchLastLogin stamps the last successful login.
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// RevocationRepository stores explicitly revoked refresh tokens.
type RevocationRepository interface {
	// Create records a revocation. A duplicate jti is not an error.
	Create(ctx context.Context, token *authDomain.RevokedToken) error

	// IsRevoked reports whether jti has been revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// DeleteExpired removes (or counts, when dryRun is true) revocations of tokens
	// that expired before the given time.
	DeleteExpired(ctx context.Context, before time.Time, dryRun bool) (int64, error)
}

// RoleRepository defines persistence operations for the authorization catalog.
type RoleRepository interface {
	// HasPermission reports whether the role grants code.
	HasPermission(ctx context.Context, roleID uuid.UUID, code string) (bool, error)

	// ListPermissionCodes returns the role's codes sorted ascending.
	ListPermissionCodes(ctx context.Context, roleID uuid.UUID) ([]string, error)

	// GetByName returns ErrRoleNotFound if the role does not exist.
	GetByName(ctx context.Context, name string) (*authDomain.Role, error)

	UpsertPermission(ctx context.Context, seed authDomain.PermissionSeed) (uuid.UUID, error)
	UpsertRole(ctx context.Context, name string) (uuid.UUID, error)
	ReplacePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error
	Clear(ctx context.Context) error
}

// TokenUseCase issues and validates generation-bound bearer tokens.
type TokenUseCase interface {
	// Login verifies credentials and issues a token pair. Unknown email, wrong
	// password and inactive account all return ErrAuthenticationFailed.
	Login(ctx context.Context, email, password string) (*userDomain.User, *authDomain.TokenPair, error)

	// IssuePair signs an access and a refresh token carrying the user's current
	// token version. It mutates nothing.
	IssuePair(ctx context.Context, user *userDomain.User) (*authDomain.TokenPair, error)

	// Authenticate validates an access token against the user's current state and
	// returns the user.
	//
	// Checks run in order: signature and structure (ErrTokenInvalid), expiry
	// (ErrTokenExpired), fresh user lookup with missing or inactive users
	// rejected (ErrAuthenticationFailed), token version (ErrTokenInvalid) and
	// token type (ErrTokenInvalid).
	Authenticate(ctx context.Context, accessToken string) (*userDomain.User, error)

	// Refresh validates a refresh token like Authenticate, additionally rejecting
	// revoked tokens, and returns a new access token. The refresh token is not rotated.
	Refresh(ctx context.Context, refreshToken string) (*authDomain.IssuedAccessToken, error)

	// Logout revokes a refresh token owned by principal.
	Logout(ctx context.Context, principal *userDomain.User, refreshToken string) error

	// PruneRevocations deletes revocations of already expired tokens.
	PruneRevocations(ctx context.Context, dryRun bool) (int64, error)
}

// PermissionUseCase resolves permissions against the role catalog. Every check
// reads current state and fails closed.
type PermissionUseCase interface {
	// HasPermission returns false for a nil or inactive user, a user without role,
	// a blank code and any lookup error.
	HasPermission(ctx context.Context, user *userDomain.User, code string) bool

	// HasAnyPermission reports whether at least one code is granted. No codes yields false.
	HasAnyPermission(ctx context.Context, user *userDomain.User, codes ...string) bool

	// HasAllPermissions reports whether every code is granted. No codes yields false.
	HasAllPermissions(ctx context.Context, user *userDomain.User, codes ...string) bool

	// ListPermissions returns the user's codes sorted ascending. Inactive users and
	// users without role get an empty list.
	ListPermissions(ctx context.Context, user *userDomain.User) ([]string, error)
}

// SeedUseCase loads the baseline authorization catalog.
type SeedUseCase interface {
	// SeedAuthorization upserts the default permissions and roles and replaces each
	// role's permission set, in one transaction. With clearCatalog, the existing catalog
	// is deleted first.
	SeedAuthorization(ctx context.Context, clearCatalog bool) (*authDomain.SeedResult, error)
}
