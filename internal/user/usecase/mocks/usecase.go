// Package mocks provides testify mocks for the user use cases.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/gatekeeper/internal/user/domain"
	"github.com/allisson/gatekeeper/internal/user/usecase"
)

// MockUseCase is a mock implementation of usecase.UseCase.
type MockUseCase struct {
	mock.Mock
}

var _ usecase.UseCase = (*MockUseCase)(nil)

func (m *MockUseCase) user(args mock.Arguments) (*domain.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUseCase) Register(ctx context.Context, input usecase.RegisterInput) (*domain.User, error) {
	return m.user(m.Called(ctx, input))
}

func (m *MockUseCase) CreateUser(
	ctx context.Context,
	actorID uuid.UUID,
	input usecase.CreateUserInput,
) (*domain.User, error) {
	return m.user(m.Called(ctx, actorID, input))
}

func (m *MockUseCase) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *MockUseCase) ListUsers(
	ctx context.Context,
	filter domain.UserFilter,
	offset, limit int,
) ([]*domain.User, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUseCase) UpdateProfile(
	ctx context.Context,
	userID uuid.UUID,
	input usecase.UpdateProfileInput,
) (*domain.User, error) {
	return m.user(m.Called(ctx, userID, input))
}

func (m *MockUseCase) UpdateUser(
	ctx context.Context,
	actorID, id uuid.UUID,
	input usecase.UpdateUserInput,
) (*domain.User, error) {
	return m.user(m.Called(ctx, actorID, id, input))
}

func (m *MockUseCase) ChangePassword(ctx context.Context, userID uuid.UUID, input usecase.ChangePasswordInput) error {
	args := m.Called(ctx, userID, input)
	return args.Error(0)
}

func (m *MockUseCase) DeactivateUser(ctx context.Context, actorID, id uuid.UUID) (*domain.User, error) {
	return m.user(m.Called(ctx, actorID, id))
}

func (m *MockUseCase) ResetPassword(ctx context.Context, actorID, id uuid.UUID) (string, error) {
	args := m.Called(ctx, actorID, id)
	return args.String(0), args.Error(1)
}
