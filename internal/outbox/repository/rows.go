// Package repository stores security events in the outbox_events table for
// PostgreSQL and MySQL.
package repository

import (
	"database/sql"

	"github.com/allisson/gatekeeper/internal/outbox/domain"
)

const eventColumns = `id, event_type, payload, status, retries, last_error, processed_at, created_at, updated_at`

// scanEvents reads every row. scanID converts the driver's id column into the
// event ID so the same loop serves UUID and BINARY(16) storage.
func scanEvents(rows *sql.Rows, scanID func(dest *domain.OutboxEvent, raw []byte) error) ([]*domain.OutboxEvent, error) {
	defer rows.Close() //nolint:errcheck

	events := make([]*domain.OutboxEvent, 0)
	for rows.Next() {
		var (
			event domain.OutboxEvent
			rawID []byte
		)
		if err := rows.Scan(&rawID, &event.EventType, &event.Payload, &event.Status, &event.Retries,
			&event.LastError, &event.ProcessedAt, &event.CreatedAt, &event.UpdatedAt); err != nil {
			return nil, err
		}
		if err := scanID(&event, rawID); err != nil {
			return nil, err
		}
		events = append(events, &event)
	}
	return events, rows.Err()
}
