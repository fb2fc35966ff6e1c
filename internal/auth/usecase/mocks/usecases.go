// Package mocks provides mock implementations of the auth use cases for testing
// HTTP handlers and commands.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	userDomain "github.com/allisson/gatekeeper/internal/user/domain"
)

// MockTokenUseCase is a mock implementation of TokenUseCase for testing.
type MockTokenUseCase struct {
	mock.Mock
}

// Login mocks the Login method of TokenUseCase.
func (m *MockTokenUseCase) Login(
	ctx context.Context,
	email, password string,
) (*userDomain.User, *authDomain.TokenPair, error) {
	args := m.Called(ctx, email, password)
	var user *userDomain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*userDomain.User)
	}
	var pair *authDomain.TokenPair
	if args.Get(1) != nil {
		pair = args.Get(1).(*authDomain.TokenPair)
	}
	return user, pair, args.Error(2)
}

// IssuePair mocks the IssuePair method of TokenUseCase.
func (m *MockTokenUseCase) IssuePair(ctx context.Context, user *userDomain.User) (*authDomain.TokenPair, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.TokenPair), args.Error(1)
}

// Authenticate mocks the Authenticate method of TokenUseCase.
func (m *MockTokenUseCase) Authenticate(ctx context.Context, accessToken string) (*userDomain.User, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

// Refresh mocks the Refresh method of TokenUseCase.
func (m *MockTokenUseCase) Refresh(ctx context.Context, refreshToken string) (*authDomain.IssuedAccessToken, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.IssuedAccessToken), args.Error(1)
}

// Logout mocks the Logout method of TokenUseCase.
func (m *MockTokenUseCase) Logout(ctx context.Context, principal *userDomain.User, refreshToken string) error {
	args := m.Called(ctx, principal, refreshToken)
	return args.Error(0)
}

// PruneRevocations mocks the PruneRevocations method of TokenUseCase.
func (m *MockTokenUseCase) PruneRevocations(ctx context.Context, dryRun bool) (int64, error) {
	args := m.Called(ctx, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

// MockPermissionUseCase is a mock implementation of PermissionUseCase for testing.
type MockPermissionUseCase struct {
	mock.Mock
}

// HasPermission mocks the HasPermission method of PermissionUseCase.
func (m *MockPermissionUseCase) HasPermission(ctx context.Context, user *userDomain.User, code string) bool {
	args := m.Called(ctx, user, code)
	return args.Bool(0)
}

// HasAnyPermission mocks the HasAnyPermission method of PermissionUseCase.
func (m *MockPermissionUseCase) HasAnyPermission(ctx context.Context, user *userDomain.User, codes ...string) bool {
	args := m.Called(ctx, user, codes)
	return args.Bool(0)
}

// HasAllPermissions mocks the HasAllPermissions method of PermissionUseCase.
func (m *MockPermissionUseCase) HasAllPermissions(ctx context.Context, user *userDomain.User, codes ...string) bool {
	args := m.Called(ctx, user, codes)
	return args.Bool(0)
}

// ListPermissions mocks the ListPermissions method of PermissionUseCase.
func (m *MockPermissionUseCase) ListPermissions(ctx context.Context, user *userDomain.User) ([]string, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockSeedUseCase is a mock implementation of SeedUseCase for testing.
type MockSeedUseCase struct {
	mock.Mock
}

// SeedAuthorization mocks the SeedAuthorization method of SeedUseCase.
func (m *MockSeedUseCase) SeedAuthorization(ctx context.Context, clearCatalog bool) (*authDomain.SeedResult, error) {
	args := m.Called(ctx, clearCatalog)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.SeedResult), args.Error(1)
}
