package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/gatekeeper/internal/metrics"
	"github.com/allisson/gatekeeper/internal/user/domain"
)

type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordSecurityEvent(ctx context.Context, action, outcome string) {
	m.Called(ctx, action, outcome)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)

func TestUserUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("DeactivateUser_Success", func(t *testing.T) {
		f := newUserFixture(t)
		m := &mockBusinessMetrics{}
		decorated := NewUserUseCaseWithMetrics(f.uc, m)
		user := existingUser()

		f.users.On("GetByID", ctx, user.ID).Return(user, nil).Once()
		f.tx.On("WithTx", ctx).Return(nil).Once()
		f.users.On("Deactivate", inTx, user.ID).Return(int64(5), nil).Once()
		f.outbox.On("Create", inTx, mock.Anything).Return(nil).Once()
		m.On("RecordOperation", ctx, "users", "deactivate", "success").Once()
		m.On("RecordDuration", ctx, "users", "deactivate", mock.AnythingOfType("time.Duration"), "success").Once()

		_, err := decorated.DeactivateUser(ctx, uuid.Must(uuid.NewV7()), user.ID)
		require.NoError(t, err)
		m.AssertExpectations(t)
	})

	t.Run("GetUser_Error", func(t *testing.T) {
		f := newUserFixture(t)
		m := &mockBusinessMetrics{}
		decorated := NewUserUseCaseWithMetrics(f.uc, m)
		id := uuid.Must(uuid.NewV7())

		f.users.On("GetByID", ctx, id).Return(nil, domain.ErrUserNotFound).Once()
		m.On("RecordOperation", ctx, "users", "get", "error").Once()
		m.On("RecordDuration", ctx, "users", "get", mock.AnythingOfType("time.Duration"), "error").Once()

		_, err := decorated.GetUser(ctx, id)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		m.AssertExpectations(t)
	})
}
