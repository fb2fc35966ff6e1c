// Package usecase implements the user lifecycle: self-service registration and
// profile management plus the administrative operations on accounts.
//
// Every operation that ends a user's outstanding credentials (deactivation,
// password change, password reset) bumps the token version through a single
// atomic repository statement, inside the same transaction that writes the
// matching security event to the outbox.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	outboxDomain "github.com/allisson/gatekeeper/internal/outbox/domain"
	"github.com/allisson/gatekeeper/internal/user/domain"
)

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter domain.UserFilter, offset, limit int) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error

	// Deactivate clears is_active and bumps token_version. Returns the new version.
	Deactivate(ctx context.Context, id uuid.UUID) (int64, error)

	// UpdatePassword stores a new hash and bumps token_version. Returns the new version.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) (int64, error)

	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// RoleLookup resolves role names for self-registration.
type RoleLookup interface {
	GetByName(ctx context.Context, name string) (*authDomain.Role, error)
}

// OutboxEventRepository stores security events for asynchronous delivery.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// PasswordHasher is the subset of the password service the lifecycle needs.
type PasswordHasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	Verify(ctx context.Context, plain string, hash string) (bool, error)
	GenerateTemporaryPassword() (string, error)
}

// RegisterInput contains the data for public self-registration.
type RegisterInput struct {
	Email           string
	FirstName       string
	LastName        string
	Password        string
	PasswordConfirm string
}

// CreateUserInput contains the data for administrative account creation.
type CreateUserInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	RoleID    *uuid.UUID
	IsActive  bool
}

// UpdateProfileInput carries self-service profile changes. Nil fields are left untouched.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
}

// UpdateUserInput carries administrative changes. Nil fields are left untouched;
// ClearRole removes the role assignment and takes precedence over RoleID.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	RoleID    *uuid.UUID
	ClearRole bool
}

// ChangePasswordInput carries a self-service password change.
type ChangePasswordInput struct {
	OldPassword        string
	NewPassword        string
	NewPasswordConfirm string
}

// UseCase defines the user lifecycle operations.
//
// actorID identifies the administrator performing an operation. uuid.Nil marks
// a system actor, such as the create-admin command.
type UseCase interface {
	// Register creates an active account with the default self-registration role,
	// when that role has been seeded.
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)

	// CreateUser creates an account with an optional role and initial state.
	CreateUser(ctx context.Context, actorID uuid.UUID, input CreateUserInput) (*domain.User, error)

	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListUsers(ctx context.Context, filter domain.UserFilter, offset, limit int) ([]*domain.User, error)

	// UpdateProfile changes the caller's own names.
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*domain.User, error)

	// UpdateUser changes names and the role assignment. It never changes is_active,
	// the password or the token version.
	UpdateUser(ctx context.Context, actorID, id uuid.UUID, input UpdateUserInput) (*domain.User, error)

	// ChangePassword verifies the old password, stores the new one and invalidates
	// every token issued to the user, including the one making the request.
	ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error

	// DeactivateUser soft-deletes the account and invalidates its tokens.
	// Deactivating an already inactive account still bumps the token version.
	DeactivateUser(ctx context.Context, actorID, id uuid.UUID) (*domain.User, error)

	// ResetPassword assigns a random temporary password, invalidates the user's
	// tokens and returns the plain password. It is never stored or logged in clear.
	ResetPassword(ctx context.Context, actorID, id uuid.UUID) (string, error)
}
