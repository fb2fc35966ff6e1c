// Package usecase delivers security events written to the transactional outbox.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/database"
	"github.com/allisson/gatekeeper/internal/metrics"
	"github.com/allisson/gatekeeper/internal/outbox/domain"
)

// Config controls the delivery loop. A zero Retention keeps processed events forever.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// OutboxEventRepository persists outbox events.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	ClaimPending(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error
	MarkRetry(ctx context.Context, event *domain.OutboxEvent) error
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventProcessor delivers a single event. A returned error schedules a retry.
type EventProcessor interface {
	Process(ctx context.Context, event *domain.OutboxEvent) error
}

// UseCase defines the interface for outbox use cases
type UseCase interface {
	Start(ctx context.Context) error
	ProcessEvents(ctx context.Context) error
}

// OutboxUseCase polls pending events and hands them to an EventProcessor.
type OutboxUseCase struct {
	config         Config
	txManager      database.TxManager
	outboxRepo     OutboxEventRepository
	eventProcessor EventProcessor
	metrics        metrics.BusinessMetrics
	logger         *slog.Logger
	now            func() time.Time
}

// NewOutboxUseCase creates a new OutboxUseCase
func NewOutboxUseCase(
	config Config,
	txManager database.TxManager,
	outboxRepo OutboxEventRepository,
	eventProcessor EventProcessor,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) *OutboxUseCase {
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &OutboxUseCase{
		config:         config,
		txManager:      txManager,
		outboxRepo:     outboxRepo,
		eventProcessor: eventProcessor,
		metrics:        businessMetrics,
		logger:         logger.With(slog.String("component", "outbox")),
		now:            time.Now,
	}
}

// Start runs the processing loop until ctx is canceled. Returns ctx.Err().
func (uc *OutboxUseCase) Start(ctx context.Context) error {
	uc.logger.Info("starting outbox event processor",
		slog.Duration("interval", uc.config.Interval),
		slog.Int("batch_size", uc.config.BatchSize),
		slog.Int("max_retries", uc.config.MaxRetries),
		slog.Duration("retention", uc.config.Retention),
	)

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("stopping outbox event processor")
			return ctx.Err()
		case <-ticker.C:
			if err := uc.ProcessEvents(ctx); err != nil {
				uc.logger.Error("failed to process events", slog.Any("error", err))
			}
			if err := uc.prune(ctx); err != nil {
				uc.logger.Error("failed to prune processed events", slog.Any("error", err))
			}
		}
	}
}

// ProcessEvents claims a batch of pending events and delivers them inside one
// transaction. The claim uses FOR UPDATE SKIP LOCKED so concurrent workers never
// deliver the same event twice. A delivery error only affects its own event.
func (uc *OutboxUseCase) ProcessEvents(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		events, err := uc.outboxRepo.ClaimPending(ctx, uc.config.BatchSize)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		uc.logger.Debug("processing events", slog.Int("count", len(events)))

		for _, event := range events {
			start := uc.now()
			if err := uc.eventProcessor.Process(ctx, event); err != nil {
				uc.metrics.RecordDuration(ctx, "outbox", event.EventType, time.Since(start), metrics.StatusError)
				if err := uc.scheduleRetry(ctx, event, err); err != nil {
					return err
				}
				continue
			}

			uc.metrics.RecordDuration(ctx, "outbox", event.EventType, time.Since(start), metrics.StatusSuccess)
			uc.metrics.RecordOperation(ctx, "outbox", event.EventType, metrics.StatusSuccess)

			processedAt := uc.now().UTC()
			if err := uc.outboxRepo.MarkProcessed(ctx, event.ID, processedAt); err != nil {
				return err
			}
			event.Status = domain.OutboxEventStatusProcessed
			event.ProcessedAt = &processedAt
			event.LastError = nil
		}
		return nil
	})
}

func (uc *OutboxUseCase) scheduleRetry(ctx context.Context, event *domain.OutboxEvent, cause error) error {
	event.Retries++
	message := cause.Error()
	event.LastError = &message
	if event.Retries >= uc.config.MaxRetries {
		event.Status = domain.OutboxEventStatusFailed
	}

	logger := uc.logger.With(
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.EventType),
		slog.Int("retries", event.Retries),
	)
	if event.Status == domain.OutboxEventStatusFailed {
		logger.Error("giving up on event", slog.Any("error", cause))
		uc.metrics.RecordOperation(ctx, "outbox", event.EventType, "failed")
	} else {
		logger.Warn("event delivery failed, will retry", slog.Any("error", cause))
		uc.metrics.RecordOperation(ctx, "outbox", event.EventType, metrics.StatusError)
	}

	return uc.outboxRepo.MarkRetry(ctx, event)
}

// prune deletes processed events older than the retention window.
func (uc *OutboxUseCase) prune(ctx context.Context) error {
	if uc.config.Retention <= 0 {
		return nil
	}
	deleted, err := uc.outboxRepo.DeleteProcessedBefore(ctx, uc.now().UTC().Add(-uc.config.Retention))
	if err != nil {
		return err
	}
	if deleted > 0 {
		uc.logger.Info("pruned processed events", slog.Int64("count", deleted))
	}
	return nil
}
