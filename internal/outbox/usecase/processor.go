package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/allisson/gatekeeper/internal/outbox/domain"
)

// LoggingEventProcessor writes every security event to the log. It is the
// processor used when no Redis client is configured.
type LoggingEventProcessor struct {
	logger *slog.Logger
}

// NewLoggingEventProcessor creates a new LoggingEventProcessor
func NewLoggingEventProcessor(logger *slog.Logger) *LoggingEventProcessor {
	return &LoggingEventProcessor{logger: logger}
}

// Process decodes the payload and logs it. Unknown event types are logged at Warn.
func (p *LoggingEventProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	var payload domain.SecurityEvent
	if err := json.Unmarshal([]byte(event.Payload), &payload); err != nil {
		return fmt.Errorf("failed to decode event payload: %w", err)
	}

	if !isSecurityEvent(event.EventType) {
		p.logger.WarnContext(ctx, "unknown event type", slog.String("event_type", event.EventType))
		return nil
	}

	p.logger.InfoContext(ctx, "security event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.EventType),
		slog.String("user_id", payload.UserID.String()),
		slog.Int64("token_version", payload.TokenVersion),
		slog.String("correlation_id", payload.CorrelationID),
	)
	return nil
}

// Envelope is the message published for every event.
type Envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// RedisEventProcessor publishes events to a Redis Pub/Sub channel.
type RedisEventProcessor struct {
	client  redis.Cmdable
	channel string
}

// NewRedisEventProcessor creates a processor publishing to channel.
func NewRedisEventProcessor(client redis.Cmdable, channel string) *RedisEventProcessor {
	return &RedisEventProcessor{client: client, channel: channel}
}

// Process publishes the event envelope. A publish failure is returned so the
// event is retried.
func (p *RedisEventProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	if !json.Valid([]byte(event.Payload)) {
		return fmt.Errorf("event %s has an invalid JSON payload", event.ID)
	}

	message, err := json.Marshal(Envelope{
		ID:        event.ID.String(),
		Type:      event.EventType,
		Payload:   json.RawMessage(event.Payload),
		CreatedAt: event.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode event envelope: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, message).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func isSecurityEvent(eventType string) bool {
	switch eventType {
	case domain.EventUserCreated,
		domain.EventUserUpdated,
		domain.EventUserDeactivated,
		domain.EventUserPasswordChanged,
		domain.EventUserPasswordReset:
		return true
	}
	return false
}
