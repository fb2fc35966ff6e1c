package mocks

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
)

// BrokenAuditLogRepository is an AuditLogRepository whose writes always fail.
// Create panics with PanicValue when it is set and returns Err otherwise.
type BrokenAuditLogRepository struct {
	Err        error
	PanicValue any

	creates atomic.Int64
}

// Create counts the attempt, then fails.
func (r *BrokenAuditLogRepository) Create(context.Context, *auditDomain.AuditLog) error {
	r.creates.Add(1)
	if r.PanicValue != nil {
		panic(r.PanicValue)
	}
	return r.Err
}

func (r *BrokenAuditLogRepository) Get(context.Context, uuid.UUID) (*auditDomain.AuditLog, error) {
	return nil, r.Err
}

func (r *BrokenAuditLogRepository) List(
	context.Context,
	auditDomain.AuditLogFilter,
	int,
	int,
) ([]*auditDomain.AuditLog, error) {
	return nil, r.Err
}

func (r *BrokenAuditLogRepository) DeleteOlderThan(context.Context, time.Time, bool) (int64, error) {
	return 0, r.Err
}

// Creates returns how many writes were attempted.
func (r *BrokenAuditLogRepository) Creates() int64 {
	return r.creates.Load()
}
