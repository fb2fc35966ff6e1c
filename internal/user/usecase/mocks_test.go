package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	outboxDomain "github.com/allisson/gatekeeper/internal/outbox/domain"
	"github.com/allisson/gatekeeper/internal/user/domain"
)

type txMarker struct{}

// inTx matches contexts handed out by MockTxManager.
var inTx = mock.MatchedBy(func(ctx context.Context) bool {
	v, _ := ctx.Value(txMarker{}).(bool)
	return v
})

// outsideTx matches contexts that are not inside a transaction.
var outsideTx = mock.MatchedBy(func(ctx context.Context) bool {
	v, _ := ctx.Value(txMarker{}).(bool)
	return !v
})

// MockTxManager marks the context passed to fn so tests can assert which calls
// ran inside the transaction.
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(context.WithValue(ctx, txMarker{}, true))
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) List(
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

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Deactivate(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) (int64, error) {
	args := m.Called(ctx, id, passwordHash)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockRoleLookup is a mock implementation of RoleLookup.
type MockRoleLookup struct {
	mock.Mock
}

func (m *MockRoleLookup) GetByName(ctx context.Context, name string) (*authDomain.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Role), args.Error(1)
}

// MockOutboxEventRepository is a mock implementation of OutboxEventRepository.
type MockOutboxEventRepository struct {
	mock.Mock
}

func (m *MockOutboxEventRepository) Create(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockPasswordHasher is a mock implementation of PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(ctx context.Context, plain string) (string, error) {
	args := m.Called(ctx, plain)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(ctx context.Context, plain string, hash string) (bool, error) {
	args := m.Called(ctx, plain, hash)
	return args.Bool(0), args.Error(1)
}

func (m *MockPasswordHasher) GenerateTemporaryPassword() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}
