package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	userDomain "github.com/allisson/gatekeeper/internal/user/domain"
)

// mockUserRepository is a mock implementation of UserRepository for testing.
type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func (m *mockUserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// mockRevocationRepository is a mock implementation of RevocationRepository for testing.
type mockRevocationRepository struct {
	mock.Mock
}

func (m *mockRevocationRepository) Create(ctx context.Context, token *authDomain.RevokedToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockRevocationRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

func (m *mockRevocationRepository) DeleteExpired(ctx context.Context, before time.Time, dryRun bool) (int64, error) {
	args := m.Called(ctx, before, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

// mockRoleRepository is a mock implementation of RoleRepository for testing.
type mockRoleRepository struct {
	mock.Mock
}

func (m *mockRoleRepository) HasPermission(ctx context.Context, roleID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, roleID, code)
	return args.Bool(0), args.Error(1)
}

func (m *mockRoleRepository) ListPermissionCodes(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, roleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockRoleRepository) GetByName(ctx context.Context, name string) (*authDomain.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Role), args.Error(1)
}

func (m *mockRoleRepository) UpsertPermission(ctx context.Context, seed authDomain.PermissionSeed) (uuid.UUID, error) {
	args := m.Called(ctx, seed)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockRoleRepository) UpsertRole(ctx context.Context, name string) (uuid.UUID, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockRoleRepository) ReplacePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	args := m.Called(ctx, roleID, permissionIDs)
	return args.Error(0)
}

func (m *mockRoleRepository) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// mockPasswordService is a mock implementation of PasswordService for testing.
type mockPasswordService struct {
	mock.Mock
}

func (m *mockPasswordService) Hash(ctx context.Context, plain string) (string, error) {
	args := m.Called(ctx, plain)
	return args.String(0), args.Error(1)
}

func (m *mockPasswordService) Verify(ctx context.Context, plain string, hash string) (bool, error) {
	args := m.Called(ctx, plain, hash)
	return args.Bool(0), args.Error(1)
}

func (m *mockPasswordService) GenerateTemporaryPassword() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// mockTxManager runs fn directly.
type mockTxManager struct {
	mock.Mock
}

func (m *mockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}
