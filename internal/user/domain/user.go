// Package domain defines the core user domain entities and types.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/errors"
)

// User represents an account that can authenticate against the API.
//
// TokenVersion is the generation counter embedded in every issued token. It only
// ever increases, and only through the repository's atomic bump operations.
type User struct {
	ID           uuid.UUID
	Email        string
	FirstName    string
	LastName     string
	Password     string
	IsActive     bool
	TokenVersion int64
	RoleID       *uuid.UUID
	RoleName     string
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HasRole reports whether a role is assigned.
func (u *User) HasRole() bool {
	return u.RoleID != nil && *u.RoleID != uuid.Nil
}

// UserOrdering is a whitelisted sort order for user listings.
type UserOrdering string

const (
	OrderByCreatedAtDesc UserOrdering = "-created_at"
	OrderByCreatedAtAsc  UserOrdering = "created_at"
	OrderByEmail         UserOrdering = "email"
	OrderByLastName      UserOrdering = "last_name"
)

// IsValid reports whether o is a supported ordering.
func (o UserOrdering) IsValid() bool {
	switch o {
	case OrderByCreatedAtDesc, OrderByCreatedAtAsc, OrderByEmail, OrderByLastName:
		return true
	}
	return false
}

// UserFilter narrows user listings. Nil or empty fields are ignored.
type UserFilter struct {
	// Email matches case-insensitively as a substring.
	Email string
	RoleID   *uuid.UUID
	IsActive *bool
	// Search matches email, first name or last name.
	Search  string
	OrderBy UserOrdering
}

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates a user with the same email already exists.
	ErrUserAlreadyExists = errors.Wrap(errors.ErrConflict, "user already exists")

	// ErrRoleNotFound indicates the role being assigned does not exist.
	ErrRoleNotFound = errors.Wrap(errors.ErrNotFound, "role not found")

	// ErrInvalidOldPassword indicates the current password supplied for a change is wrong.
	ErrInvalidOldPassword = errors.Wrap(errors.ErrInvalidInput, "old password is incorrect")
)
