package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

var mysqlDialect = dialect{
	placeholder: func(int) string { return "?" },
	like:        "LIKE",
	uuidArg:     func(id uuid.UUID) (any, error) { return id.MarshalBinary() },
}

// MySQLAuditLogRepository implements AuditLog persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLAuditLogRepository struct {
	db *sql.DB
}

// NewMySQLAuditLogRepository creates a new MySQL AuditLog repository.
func NewMySQLAuditLogRepository(db *sql.DB) *MySQLAuditLogRepository {
	return &MySQLAuditLogRepository{db: db}
}

// Create inserts a new AuditLog using BINARY(16) for UUIDs. Nil metadata and
// signature are stored as NULL.
func (m *MySQLAuditLogRepository) Create(ctx context.Context, auditLog *auditDomain.AuditLog) error {
	querier := database.GetTx(ctx, m.db)

	metadataJSON, err := marshalMetadata(auditLog.Metadata)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit log metadata")
	}

	id, err := auditLog.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit log id")
	}

	var actorID any
	if auditLog.ActorID != nil {
		actorID, err = auditLog.ActorID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit log actor_id")
		}
	}

	query := `INSERT INTO audit_logs (` + auditColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		auditLog.Action,
		actorID,
		auditLog.ResourceType,
		auditLog.ResourceID,
		string(auditLog.Outcome),
		nullableJSON(metadataJSON),
		auditLog.IPAddress,
		auditLog.UserAgent,
		auditLog.CorrelationID,
		nullableBytes(auditLog.Signature),
		auditLog.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit log")
	}

	return nil
}

// Get retrieves an AuditLog by ID.
func (m *MySQLAuditLogRepository) Get(ctx context.Context, id uuid.UUID) (*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, m.db)

	idBinary, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal audit log id")
	}

	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE id = ?`

	auditLog, err := scanMySQLAuditLog(querier.QueryRowContext(ctx, query, idBinary))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auditDomain.ErrAuditLogNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get audit log")
	}
	return auditLog, nil
}

// List retrieves audit logs matching filter ordered by created_at descending
// (newest first) with pagination. Both time boundaries are inclusive.
func (m *MySQLAuditLogRepository) List(
	ctx context.Context,
	filter auditDomain.AuditLogFilter,
	offset, limit int,
) ([]*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, m.db)

	where, args, err := buildAuditFilter(filter, mysqlDialect)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build audit log filter")
	}

	query := fmt.Sprintf(
		"SELECT %s FROM audit_logs%s ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		auditColumns,
		where,
	)
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	auditLogs := make([]*auditDomain.AuditLog, 0)
	for rows.Next() {
		auditLog, err := scanMySQLAuditLog(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit log")
		}
		auditLogs = append(auditLogs, auditLog)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit logs")
	}

	return auditLogs, nil
}

// DeleteOlderThan deletes audit logs created before olderThan, or only counts
// them when dryRun is true.
func (m *MySQLAuditLogRepository) DeleteOlderThan(
	ctx context.Context,
	olderThan time.Time,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	if dryRun {
		var count int64
		query := `SELECT COUNT(*) FROM audit_logs WHERE created_at < ?`
		if err := querier.QueryRowContext(ctx, query, olderThan.UTC()).Scan(&count); err != nil {
			return 0, apperrors.Wrap(err, "failed to count audit logs")
		}
		return count, nil
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < ?`, olderThan.UTC())
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit logs")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return count, nil
}

func scanMySQLAuditLog(row rowScanner) (*auditDomain.AuditLog, error) {
	var auditLog auditDomain.AuditLog
	var idBinary, actorIDBinary []byte
	var outcome string
	var metadataJSON []byte

	err := row.Scan(
		&idBinary,
		&auditLog.Action,
		&actorIDBinary,
		&auditLog.ResourceType,
		&auditLog.ResourceID,
		&outcome,
		&metadataJSON,
		&auditLog.IPAddress,
		&auditLog.UserAgent,
		&auditLog.CorrelationID,
		&auditLog.Signature,
		&auditLog.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := auditLog.ID.UnmarshalBinary(idBinary); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal audit log id")
	}

	if len(actorIDBinary) > 0 {
		var actorID uuid.UUID
		if err := actorID.UnmarshalBinary(actorIDBinary); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit log actor_id")
		}
		auditLog.ActorID = &actorID
	}

	auditLog.Outcome = auditDomain.Outcome(outcome)
	auditLog.CreatedAt = auditLog.CreatedAt.UTC()

	auditLog.Metadata, err = unmarshalMetadata(metadataJSON)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal audit log metadata")
	}

	return &auditLog, nil
}
