package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/metrics"
	"github.com/allisson/gatekeeper/internal/user/domain"
)

// userUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type userUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewUserUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewUserUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &userUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (u *userUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "users", operation, status)
	u.metrics.RecordDuration(ctx, "users", operation, time.Since(start), status)
}

func (u *userUseCaseWithMetrics) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.Register(ctx, input)
	u.record(ctx, "register", start, err)
	return user, err
}

func (u *userUseCaseWithMetrics) CreateUser(
	ctx context.Context,
	actorID uuid.UUID,
	input CreateUserInput,
) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.CreateUser(ctx, actorID, input)
	u.record(ctx, "create", start, err)
	return user, err
}

func (u *userUseCaseWithMetrics) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.GetUser(ctx, id)
	u.record(ctx, "get", start, err)
	return user, err
}

func (u *userUseCaseWithMetrics) ListUsers(
	ctx context.Context,
	filter domain.UserFilter,
	offset, limit int,
) ([]*domain.User, error) {
	start := time.Now()
	users, err := u.next.ListUsers(ctx, filter, offset, limit)
	u.record(ctx, "list", start, err)
	return users, err
}

func (u *userUseCaseWithMetrics) UpdateProfile(
	ctx context.Context,
	userID uuid.UUID,
	input UpdateProfileInput,
) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.UpdateProfile(ctx, userID, input)
	u.record(ctx, "update_profile", start, err)
	return user, err
}

func (u *userUseCaseWithMetrics) UpdateUser(
	ctx context.Context,
	actorID, id uuid.UUID,
	input UpdateUserInput,
) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.UpdateUser(ctx, actorID, id, input)
	u.record(ctx, "update", start, err)
	return user, err
}

func (u *userUseCaseWithMetrics) ChangePassword(
	ctx context.Context,
	userID uuid.UUID,
	input ChangePasswordInput,
) error {
	start := time.Now()
	err := u.next.ChangePassword(ctx, userID, input)
	u.record(ctx, "change_password", start, err)
	return err
}

func (u *userUseCaseWithMetrics) DeactivateUser(ctx context.Context, actorID, id uuid.UUID) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.DeactivateUser(ctx, actorID, id)
	u.record(ctx, "deactivate", start, err)
	return user, err
}

func (u *userUseCaseWithMetrics) ResetPassword(ctx context.Context, actorID, id uuid.UUID) (string, error) {
	start := time.Now()
	password, err := u.next.ResetPassword(ctx, actorID, id)
	u.record(ctx, "reset_password", start, err)
	return password, err
}
