package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/database"
	"github.com/allisson/gatekeeper/internal/outbox/domain"
)

// MySQLOutboxEventRepository stores outbox events in MySQL with BINARY(16) ids.
type MySQLOutboxEventRepository struct {
	db *sql.DB
}

// NewMySQLOutboxEventRepository creates a MySQL outbox repository.
func NewMySQLOutboxEventRepository(db *sql.DB) *MySQLOutboxEventRepository {
	return &MySQLOutboxEventRepository{db: db}
}

func (r *MySQLOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	_, err := database.GetTx(ctx, r.db).ExecContext(ctx,
		`INSERT INTO outbox_events (id, event_type, payload, status, retries, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, NOW(6), NOW(6))`,
		event.ID[:], event.EventType, event.Payload, event.Status, event.Retries,
	)
	return err
}

// ClaimPending requires MySQL 8.0 for SKIP LOCKED.
func (r *MySQLOutboxEventRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	tx, err := database.RequireTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM outbox_events
		 WHERE status = ?
		 ORDER BY created_at ASC
		 LIMIT ?
		 FOR UPDATE SKIP LOCKED`,
		domain.OutboxEventStatusPending, limit,
	)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows, func(dest *domain.OutboxEvent, raw []byte) error {
		return dest.ID.UnmarshalBinary(raw)
	})
}

func (r *MySQLOutboxEventRepository) MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error {
	_, err := database.GetTx(ctx, r.db).ExecContext(ctx,
		`UPDATE outbox_events
		 SET status = ?, processed_at = ?, last_error = NULL, updated_at = NOW(6)
		 WHERE id = ?`,
		domain.OutboxEventStatusProcessed, processedAt, id[:],
	)
	return err
}

func (r *MySQLOutboxEventRepository) MarkRetry(ctx context.Context, event *domain.OutboxEvent) error {
	_, err := database.GetTx(ctx, r.db).ExecContext(ctx,
		`UPDATE outbox_events
		 SET status = ?, retries = ?, last_error = ?, updated_at = NOW(6)
		 WHERE id = ?`,
		event.Status, event.Retries, event.LastError, event.ID[:],
	)
	return err
}

func (r *MySQLOutboxEventRepository) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := database.GetTx(ctx, r.db).ExecContext(ctx,
		`DELETE FROM outbox_events WHERE status = ? AND processed_at < ?`,
		domain.OutboxEventStatusProcessed, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
