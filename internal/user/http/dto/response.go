package dto

import (
	"time"

	"github.com/google/uuid"
)

// UserResponse is the external representation of a user. It never carries the
// password hash or the token version.
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	RoleID      *uuid.UUID `json:"role_id"`
	RoleName    *string    `json:"role_name"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ListUsersResponse represents a paginated list of users.
type ListUsersResponse struct {
	Data []UserResponse `json:"data"`
}

// ResetPasswordResponse carries the temporary password.
// SECURITY: It is returned exactly once and never stored in clear.
type ResetPasswordResponse struct {
	TemporaryPassword string `json:"temporary_password"` //nolint:gosec // returned once on reset
}
