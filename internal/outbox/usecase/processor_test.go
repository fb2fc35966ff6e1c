package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/gatekeeper/internal/outbox/domain"
)

// fakePublisher implements the Publish command of redis.Cmdable.
type fakePublisher struct {
	redis.Cmdable
	channel string
	message []byte
	err     error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	f.channel = channel
	f.message, _ = message.([]byte)
	return redis.NewIntResult(1, f.err)
}

func TestRedisEventProcessor_Process(t *testing.T) {
	publisher := &fakePublisher{}
	processor := NewRedisEventProcessor(publisher, "gatekeeper:events")
	event := newEvent(t, domain.EventUserDeactivated)

	require.NoError(t, processor.Process(context.Background(), event))
	assert.Equal(t, "gatekeeper:events", publisher.channel)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(publisher.message, &envelope))
	assert.Equal(t, event.ID.String(), envelope.ID)
	assert.Equal(t, domain.EventUserDeactivated, envelope.Type)
	assert.JSONEq(t, event.Payload, string(envelope.Payload))
}

func TestRedisEventProcessor_PublishError(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("connection refused")}
	processor := NewRedisEventProcessor(publisher, "events")

	err := processor.Process(context.Background(), newEvent(t, domain.EventUserCreated))
	assert.ErrorContains(t, err, "failed to publish event")
}

func TestRedisEventProcessor_InvalidPayload(t *testing.T) {
	publisher := &fakePublisher{}
	processor := NewRedisEventProcessor(publisher, "events")
	event := newEvent(t, domain.EventUserCreated)
	event.Payload = "not json"

	assert.Error(t, processor.Process(context.Background(), event))
	assert.Empty(t, publisher.channel, "nothing is published")
}

func TestLoggingEventProcessor_Process(t *testing.T) {
	buf := &bytes.Buffer{}
	processor := NewLoggingEventProcessor(slog.New(slog.NewJSONHandler(buf, nil)))

	require.NoError(t, processor.Process(context.Background(), newEvent(t, domain.EventUserPasswordChanged)))
	assert.Contains(t, buf.String(), `"event_type":"user.password_changed"`)
	assert.Contains(t, buf.String(), `"token_version":1`)

	buf.Reset()
	require.NoError(t, processor.Process(context.Background(), &domain.OutboxEvent{
		EventType: "order.created",
		Payload:   `{}`,
	}))
	assert.Contains(t, buf.String(), "unknown event type")

	assert.Error(t, processor.Process(context.Background(), &domain.OutboxEvent{Payload: "{"}))
}
