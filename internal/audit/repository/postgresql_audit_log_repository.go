package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

var postgresDialect = dialect{
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	like:        "ILIKE",
	uuidArg:     func(id uuid.UUID) (any, error) { return id, nil },
}

// PostgreSQLAuditLogRepository implements AuditLog persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLAuditLogRepository struct {
	db *sql.DB
}

// NewPostgreSQLAuditLogRepository creates a new PostgreSQL AuditLog repository.
func NewPostgreSQLAuditLogRepository(db *sql.DB) *PostgreSQLAuditLogRepository {
	return &PostgreSQLAuditLogRepository{db: db}
}

// Create inserts a new AuditLog. Nil metadata and signature are stored as NULL.
func (p *PostgreSQLAuditLogRepository) Create(ctx context.Context, auditLog *auditDomain.AuditLog) error {
	querier := database.GetTx(ctx, p.db)

	metadataJSON, err := marshalMetadata(auditLog.Metadata)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit log metadata")
	}

	var actorID any
	if auditLog.ActorID != nil {
		actorID = *auditLog.ActorID
	}

	query := `INSERT INTO audit_logs (` + auditColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = querier.ExecContext(
		ctx,
		query,
		auditLog.ID,
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
func (p *PostgreSQLAuditLogRepository) Get(ctx context.Context, id uuid.UUID) (*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE id = $1`

	auditLog, err := scanPostgreSQLAuditLog(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auditDomain.ErrAuditLogNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get audit log")
	}
	return auditLog, nil
}

// List retrieves audit logs matching filter ordered by created_at descending
// (newest first) with pagination. Both time boundaries are inclusive. Returns
// an empty slice if no audit logs are found.
func (p *PostgreSQLAuditLogRepository) List(
	ctx context.Context,
	filter auditDomain.AuditLogFilter,
	offset, limit int,
) ([]*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, p.db)

	where, args, err := buildAuditFilter(filter, postgresDialect)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build audit log filter")
	}

	query := fmt.Sprintf(
		"SELECT %s FROM audit_logs%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		auditColumns,
		where,
		len(args)+1,
		len(args)+2,
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
		auditLog, err := scanPostgreSQLAuditLog(rows)
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
// them when dryRun is true. Returns the number of affected rows.
func (p *PostgreSQLAuditLogRepository) DeleteOlderThan(
	ctx context.Context,
	olderThan time.Time,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	if dryRun {
		var count int64
		query := `SELECT COUNT(*) FROM audit_logs WHERE created_at < $1`
		if err := querier.QueryRowContext(ctx, query, olderThan.UTC()).Scan(&count); err != nil {
			return 0, apperrors.Wrap(err, "failed to count audit logs")
		}
		return count, nil
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, olderThan.UTC())
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit logs")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgreSQLAuditLog(row rowScanner) (*auditDomain.AuditLog, error) {
	var auditLog auditDomain.AuditLog
	var actorID uuid.NullUUID
	var outcome string
	var metadataJSON []byte

	err := row.Scan(
		&auditLog.ID,
		&auditLog.Action,
		&actorID,
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

	if actorID.Valid {
		auditLog.ActorID = &actorID.UUID
	}
	auditLog.Outcome = auditDomain.Outcome(outcome)
	auditLog.CreatedAt = auditLog.CreatedAt.UTC()

	auditLog.Metadata, err = unmarshalMetadata(metadataJSON)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal audit log metadata")
	}

	return &auditLog, nil
}
