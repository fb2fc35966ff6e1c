package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	"github.com/allisson/gatekeeper/internal/audit/usecase"
)

// MockAuditLogUseCase is a mock implementation of usecase.AuditLogUseCase.
type MockAuditLogUseCase struct {
	mock.Mock
}

var _ usecase.AuditLogUseCase = (*MockAuditLogUseCase)(nil)

func (m *MockAuditLogUseCase) List(
	ctx context.Context,
	filter auditDomain.AuditLogFilter,
	offset, limit int,
) ([]*auditDomain.AuditLog, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.AuditLog), args.Error(1)
}

func (m *MockAuditLogUseCase) Get(ctx context.Context, id uuid.UUID) (*auditDomain.AuditLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.AuditLog), args.Error(1)
}

func (m *MockAuditLogUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	args := m.Called(ctx, days, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuditLogUseCase) Verify(
	ctx context.Context,
	start, end time.Time,
) (*auditDomain.VerificationReport, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.VerificationReport), args.Error(1)
}
