package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	"github.com/allisson/gatekeeper/internal/metrics"
)

// auditLogUseCaseWithMetrics decorates AuditLogUseCase with metrics instrumentation.
type auditLogUseCaseWithMetrics struct {
	next    AuditLogUseCase
	metrics metrics.BusinessMetrics
}

// NewAuditLogUseCaseWithMetrics wraps an AuditLogUseCase with metrics recording.
func NewAuditLogUseCaseWithMetrics(useCase AuditLogUseCase, m metrics.BusinessMetrics) AuditLogUseCase {
	return &auditLogUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (a *auditLogUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "audit", operation, status)
	a.metrics.RecordDuration(ctx, "audit", operation, time.Since(start), status)
}

// List records metrics for audit log listing.
func (a *auditLogUseCaseWithMetrics) List(
	ctx context.Context,
	filter auditDomain.AuditLogFilter,
	offset, limit int,
) ([]*auditDomain.AuditLog, error) {
	start := time.Now()
	auditLogs, err := a.next.List(ctx, filter, offset, limit)
	a.record(ctx, "audit_log_list", start, err)
	return auditLogs, err
}

// Get records metrics for audit log retrieval.
func (a *auditLogUseCaseWithMetrics) Get(ctx context.Context, id uuid.UUID) (*auditDomain.AuditLog, error) {
	start := time.Now()
	auditLog, err := a.next.Get(ctx, id)
	a.record(ctx, "audit_log_get", start, err)
	return auditLog, err
}

// DeleteOlderThan records metrics for audit log cleanup.
func (a *auditLogUseCaseWithMetrics) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	start := time.Now()
	count, err := a.next.DeleteOlderThan(ctx, days, dryRun)
	a.record(ctx, "audit_log_delete", start, err)
	return count, err
}

// Verify records metrics for signature verification.
func (a *auditLogUseCaseWithMetrics) Verify(
	ctx context.Context,
	start, end time.Time,
) (*auditDomain.VerificationReport, error) {
	begin := time.Now()
	report, err := a.next.Verify(ctx, start, end)
	a.record(ctx, "audit_log_verify", begin, err)
	return report, err
}
