package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	auditService "github.com/allisson/gatekeeper/internal/audit/service"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

const verifyBatchSize = 1000

// auditLogUseCase implements AuditLogUseCase.
type auditLogUseCase struct {
	auditLogRepo AuditLogRepository
	signer       auditService.AuditSigner
}

// NewAuditLogUseCase creates a new AuditLogUseCase with the provided dependencies.
func NewAuditLogUseCase(auditLogRepo AuditLogRepository, signer auditService.AuditSigner) AuditLogUseCase {
	return &auditLogUseCase{
		auditLogRepo: auditLogRepo,
		signer:       signer,
	}
}

// List retrieves audit logs ordered by created_at descending (newest first) with
// pagination. Returns an empty slice if no audit logs are found.
func (a *auditLogUseCase) List(
	ctx context.Context,
	filter auditDomain.AuditLogFilter,
	offset, limit int,
) ([]*auditDomain.AuditLog, error) {
	auditLogs, err := a.auditLogRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}

	return auditLogs, nil
}

func (a *auditLogUseCase) Get(ctx context.Context, id uuid.UUID) (*auditDomain.AuditLog, error) {
	return a.auditLogRepo.Get(ctx, id)
}

// DeleteOlderThan removes audit logs older than the given number of days.
func (a *auditLogUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	if days < 0 {
		return 0, apperrors.Wrapf(apperrors.ErrInvalidInput, "days must be zero or positive, got %d", days)
	}

	olderThan := time.Now().UTC().AddDate(0, 0, -days)

	count, err := a.auditLogRepo.DeleteOlderThan(ctx, olderThan, dryRun)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit logs")
	}

	return count, nil
}

// Verify recomputes the signature of every entry in [start, end]. Unsigned
// entries are counted separately and never fail the report.
func (a *auditLogUseCase) Verify(
	ctx context.Context,
	start, end time.Time,
) (*auditDomain.VerificationReport, error) {
	if a.signer == nil || !a.signer.Enabled() {
		return nil, auditDomain.ErrSigningDisabled
	}

	report := &auditDomain.VerificationReport{InvalidLogs: make([]uuid.UUID, 0)}
	filter := auditDomain.AuditLogFilter{CreatedAtFrom: &start, CreatedAtTo: &end}

	for offset := 0; ; offset += verifyBatchSize {
		auditLogs, err := a.auditLogRepo.List(ctx, filter, offset, verifyBatchSize)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to list audit logs for verification")
		}

		for _, auditLog := range auditLogs {
			report.TotalChecked++

			if !auditLog.IsSigned() {
				report.UnsignedCount++
				continue
			}

			report.SignedCount++
			if err := a.signer.Verify(auditLog); err != nil {
				report.InvalidCount++
				report.InvalidLogs = append(report.InvalidLogs, auditLog.ID)
				continue
			}
			report.ValidCount++
		}

		if len(auditLogs) < verifyBatchSize {
			break
		}
	}

	return report, nil
}
