// Package usecase implements audit trail recording and querying.
//
// Recording is fail-silent: Recorder never returns an error and never panics,
// so an unavailable audit store cannot change the outcome of the operation
// being audited.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
)

// AuditLogRepository defines the interface for audit log persistence.
type AuditLogRepository interface {
	// Create stores a new audit log entry.
	Create(ctx context.Context, auditLog *auditDomain.AuditLog) error

	// Get retrieves an audit log entry by ID.
	Get(ctx context.Context, id uuid.UUID) (*auditDomain.AuditLog, error)

	// List retrieves audit log entries newest first.
	List(ctx context.Context, filter auditDomain.AuditLogFilter, offset, limit int) ([]*auditDomain.AuditLog, error)

	// DeleteOlderThan removes (or counts, when dryRun is true) entries created before olderThan.
	DeleteOlderThan(ctx context.Context, olderThan time.Time, dryRun bool) (int64, error)
}

// Recorder appends entries to the audit trail on a best-effort basis.
type Recorder interface {
	// Record stores an entry. Failures are logged and swallowed.
	Record(
		ctx context.Context,
		action string,
		actorID *uuid.UUID,
		resourceType, resourceID string,
		outcome auditDomain.Outcome,
		metadata map[string]any,
	)

	// RecordSuccess is Record with OutcomeSuccess.
	RecordSuccess(
		ctx context.Context,
		action string,
		actorID *uuid.UUID,
		resourceType, resourceID string,
		metadata map[string]any,
	)

	// RecordFailure is Record with OutcomeFailure.
	RecordFailure(
		ctx context.Context,
		action string,
		actorID *uuid.UUID,
		resourceType, resourceID string,
		metadata map[string]any,
	)
}

// AuditLogUseCase defines the query and maintenance operations on the audit trail.
type AuditLogUseCase interface {
	// List retrieves audit logs matching filter with pagination.
	List(ctx context.Context, filter auditDomain.AuditLogFilter, offset, limit int) ([]*auditDomain.AuditLog, error)

	// Get retrieves a single audit log entry.
	Get(ctx context.Context, id uuid.UUID) (*auditDomain.AuditLog, error)

	// DeleteOlderThan removes entries older than days days. With dryRun it only counts them.
	DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error)

	// Verify recomputes signatures for every entry created in [start, end].
	Verify(ctx context.Context, start, end time.Time) (*auditDomain.VerificationReport, error)
}
