// Package domain defines the audit trail entities.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/errors"
)

// Outcome is the result of an audited action.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// IsValid reports whether o is a known outcome.
func (o Outcome) IsValid() bool {
	return o == OutcomeSuccess || o == OutcomeFailure
}

// Audited actions, "<resource>.<verb>".
const (
	ActionLogin               = "auth.login"
	ActionLogout              = "auth.logout"
	ActionRefresh             = "auth.refresh"
	ActionRegister            = "auth.register"
	ActionProfileUpdated      = "auth.profile_updated"
	ActionPasswordChanged     = "auth.password_changed"
	ActionAuthorizationDenied = "authorization.denied"
	ActionUserCreated         = "user.created"
	ActionUserUpdated         = "user.updated"
	ActionUserDeactivated     = "user.deactivated"
	ActionUserPasswordReset   = "user.password_reset"
	ActionAuthorizationSeeded = "authorization.seeded"
	ActionRevocationsPruned   = "auth.revocations_pruned"
	ActionAuditLogsCleaned    = "audit.logs_cleaned"
)

// Resource types referenced by audit entries.
const (
	ResourceUser     = "user"
	ResourceSession  = "session"
	ResourceEndpoint = "endpoint"
	ResourceRole     = "role"
	ResourceAuditLog = "audit_log"
)

// AuditLog is an immutable record of a security-relevant event. ActorID is nil
// for anonymous actions such as a failed login for an unknown account.
type AuditLog struct {
	ID            uuid.UUID
	Action        string
	ActorID       *uuid.UUID
	ResourceType  string
	ResourceID    string
	Outcome       Outcome
	Metadata      map[string]any
	IPAddress     string
	UserAgent     string
	CorrelationID string
	Signature     []byte
	CreatedAt     time.Time
}

// IsSigned reports whether the entry carries a signature.
func (a *AuditLog) IsSigned() bool {
	return len(a.Signature) > 0
}

// AuditLogFilter narrows audit log listings. Zero values are ignored.
type AuditLogFilter struct {
	// Action and ResourceType match case-insensitively as substrings.
	Action        string
	ResourceType  string
	Outcome       Outcome
	ActorID       *uuid.UUID
	CorrelationID string
	CreatedAtFrom *time.Time
	CreatedAtTo   *time.Time
}

// VerificationReport summarizes a signature check over a time range.
type VerificationReport struct {
	TotalChecked  int64
	SignedCount   int64
	UnsignedCount int64
	ValidCount    int64
	InvalidCount  int64
	InvalidLogs   []uuid.UUID
}

// Audit errors.
var (
	// ErrAuditLogNotFound indicates the requested audit entry does not exist.
	ErrAuditLogNotFound = errors.Wrap(errors.ErrNotFound, "audit log not found")

	// ErrSignatureInvalid indicates an entry's signature does not match its content.
	ErrSignatureInvalid = errors.New("audit log signature invalid")

	// ErrSigningDisabled indicates verification was requested without a signing key.
	ErrSigningDisabled = errors.Wrap(errors.ErrInvalidInput, "audit signing is not configured")
)
