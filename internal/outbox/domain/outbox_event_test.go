package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOutboxEvent(t *testing.T) {
	userID := uuid.Must(uuid.NewV7())
	occurredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	event, err := NewOutboxEvent(EventUserDeactivated, SecurityEvent{
		UserID:       userID,
		Email:        "jane@example.com",
		TokenVersion: 4,
		OccurredAt:   occurredAt,
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, EventUserDeactivated, event.EventType)
	assert.Equal(t, OutboxEventStatusPending, event.Status)
	assert.Zero(t, event.Retries)

	var payload SecurityEvent
	require.NoError(t, json.Unmarshal([]byte(event.Payload), &payload))
	assert.Equal(t, userID, payload.UserID)
	assert.Equal(t, int64(4), payload.TokenVersion)
	assert.Nil(t, payload.ActorID)
	assert.NotContains(t, event.Payload, "actor_id")
}

func TestNewOutboxEvent_MarshalError(t *testing.T) {
	_, err := NewOutboxEvent(EventUserCreated, map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}
