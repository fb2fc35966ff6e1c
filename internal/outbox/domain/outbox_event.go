// Package domain defines the core outbox domain entities and types.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// Security event types emitted by user lifecycle operations.
const (
	EventUserCreated         = "user.created"
	EventUserUpdated         = "user.updated"
	EventUserDeactivated     = "user.deactivated"
	EventUserPasswordChanged = "user.password_changed"
	EventUserPasswordReset   = "user.password_reset"
)

// OutboxEvent represents an event in the transactional outbox pattern
type OutboxEvent struct {
	ID          uuid.UUID
	EventType   string
	Payload     string
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOutboxEvent builds a pending event with a JSON-encoded payload.
func NewOutboxEvent(eventType string, payload any) (*OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   string(data),
		Status:    OutboxEventStatusPending,
	}, nil
}

// SecurityEvent is the payload of every user lifecycle event.
type SecurityEvent struct {
	UserID        uuid.UUID  `json:"user_id"`
	Email         string     `json:"email"`
	ActorID       *uuid.UUID `json:"actor_id,omitempty"`
	TokenVersion  int64      `json:"token_version"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}
