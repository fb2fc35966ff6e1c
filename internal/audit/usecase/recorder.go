package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	auditService "github.com/allisson/gatekeeper/internal/audit/service"
	"github.com/allisson/gatekeeper/internal/metrics"
)

type recorder struct {
	repo    AuditLogRepository
	signer  auditService.AuditSigner
	metrics metrics.BusinessMetrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewRecorder creates a Recorder. Entries are signed when signer is enabled.
func NewRecorder(
	repo AuditLogRepository,
	signer auditService.AuditSigner,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) Recorder {
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	return &recorder{
		repo:    repo,
		signer:  signer,
		metrics: businessMetrics,
		logger:  logger.With(slog.String("component", "audit")),
		now:     time.Now,
	}
}

func (r *recorder) RecordSuccess(
	ctx context.Context,
	action string,
	actorID *uuid.UUID,
	resourceType, resourceID string,
	metadata map[string]any,
) {
	r.Record(ctx, action, actorID, resourceType, resourceID, auditDomain.OutcomeSuccess, metadata)
}

func (r *recorder) RecordFailure(
	ctx context.Context,
	action string,
	actorID *uuid.UUID,
	resourceType, resourceID string,
	metadata map[string]any,
) {
	r.Record(ctx, action, actorID, resourceType, resourceID, auditDomain.OutcomeFailure, metadata)
}

func (r *recorder) Record(
	ctx context.Context,
	action string,
	actorID *uuid.UUID,
	resourceType, resourceID string,
	outcome auditDomain.Outcome,
	metadata map[string]any,
) {
	var auditLog *auditDomain.AuditLog
	defer func() {
		if p := recover(); p != nil {
			if auditLog == nil {
				auditLog = &auditDomain.AuditLog{Action: action, Outcome: outcome}
			}
			r.fail(ctx, auditLog, fmt.Errorf("panic: %v", p))
		}
	}()

	auditLog = r.build(ctx, action, actorID, resourceType, resourceID, outcome, metadata)

	if r.signer != nil && r.signer.Enabled() {
		signature, err := r.signer.Sign(auditLog)
		if err != nil {
			r.fail(ctx, auditLog, err)
			return
		}
		auditLog.Signature = signature
	}

	// The audited request may already be finished; the write must not be cut short by it.
	writeCtx := context.WithoutCancel(ctx)
	if err := r.repo.Create(writeCtx, auditLog); err != nil {
		r.fail(ctx, auditLog, err)
		return
	}

	r.metrics.RecordOperation(ctx, "audit", "record", metrics.StatusSuccess)
	r.metrics.RecordSecurityEvent(ctx, auditLog.Action, string(auditLog.Outcome))
}

func (r *recorder) build(
	ctx context.Context,
	action string,
	actorID *uuid.UUID,
	resourceType, resourceID string,
	outcome auditDomain.Outcome,
	metadata map[string]any,
) *auditDomain.AuditLog {
	meta, _ := auditDomain.GetRequestMeta(ctx)
	if meta.CorrelationID == "" {
		meta.CorrelationID = uuid.Must(uuid.NewV7()).String()
	}

	var actor *uuid.UUID
	if actorID != nil {
		id := *actorID
		actor = &id
	}

	return &auditDomain.AuditLog{
		ID:            uuid.Must(uuid.NewV7()),
		Action:        action,
		ActorID:       actor,
		ResourceType:  resourceType,
		ResourceID:    resourceID,
		Outcome:       outcome,
		Metadata:      metadata,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
		CorrelationID: meta.CorrelationID,
		CreatedAt:     r.now().UTC().Truncate(time.Microsecond),
	}
}

func (r *recorder) fail(ctx context.Context, auditLog *auditDomain.AuditLog, err error) {
	r.metrics.RecordOperation(ctx, "audit", "record", metrics.StatusError)
	r.logger.ErrorContext(ctx, "failed to record audit log",
		slog.String("action", auditLog.Action),
		slog.String("outcome", string(auditLog.Outcome)),
		slog.String("correlation_id", auditLog.CorrelationID),
		slog.Any("error", err),
	)
}
