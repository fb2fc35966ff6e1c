package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/database"
	"github.com/allisson/gatekeeper/internal/outbox/domain"
)

// PostgreSQLOutboxEventRepository stores outbox events in PostgreSQL.
type PostgreSQLOutboxEventRepository struct {
	db *sql.DB
}

// NewPostgreSQLOutboxEventRepository creates a PostgreSQL outbox repository.
func NewPostgreSQLOutboxEventRepository(db *sql.DB) *PostgreSQLOutboxEventRepository {
	return &PostgreSQLOutboxEventRepository{db: db}
}

// Create inserts a pending event. Called inside the transaction of the user
// change that produced it.
func (r *PostgreSQLOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	_, err := database.GetTx(ctx, r.db).ExecContext(ctx,
		`INSERT INTO outbox_events (id, event_type, payload, status, retries, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`,
		event.ID, event.EventType, event.Payload, event.Status, event.Retries,
	)
	return err
}

// ClaimPending locks up to limit pending events, oldest first. Rows locked by
// another worker are skipped. Fails with database.ErrTxRequired outside WithTx.
func (r *PostgreSQLOutboxEventRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	tx, err := database.RequireTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM outbox_events
		 WHERE status = $1
		 ORDER BY created_at ASC
		 LIMIT $2
		 FOR UPDATE SKIP LOCKED`,
		domain.OutboxEventStatusPending, limit,
	)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows, func(dest *domain.OutboxEvent, raw []byte) error {
		id, err := uuid.ParseBytes(raw)
		dest.ID = id
		return err
	})
}

// MarkProcessed moves the event to processed and clears its last error.
func (r *PostgreSQLOutboxEventRepository) MarkProcessed(
	ctx context.Context,
	id uuid.UUID,
	processedAt time.Time,
) error {
	_, err := database.GetTx(ctx, r.db).ExecContext(ctx,
		`UPDATE outbox_events
		 SET status = $1, processed_at = $2, last_error = NULL, updated_at = NOW()
		 WHERE id = $3`,
		domain.OutboxEventStatusProcessed, processedAt, id,
	)
	return err
}

// MarkRetry stores the attempt count and last error. The status moves to failed
// when the caller has given up on the event.
func (r *PostgreSQLOutboxEventRepository) MarkRetry(ctx context.Context, event *domain.OutboxEvent) error {
	_, err := database.GetTx(ctx, r.db).ExecContext(ctx,
		`UPDATE outbox_events
		 SET status = $1, retries = $2, last_error = $3, updated_at = NOW()
		 WHERE id = $4`,
		event.Status, event.Retries, event.LastError, event.ID,
	)
	return err
}

// DeleteProcessedBefore removes delivered events processed before cutoff.
// Failed events are kept for inspection.
func (r *PostgreSQLOutboxEventRepository) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := database.GetTx(ctx, r.db).ExecContext(ctx,
		`DELETE FROM outbox_events WHERE status = $1 AND processed_at < $2`,
		domain.OutboxEventStatusProcessed, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
