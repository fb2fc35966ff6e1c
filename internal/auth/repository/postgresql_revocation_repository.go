package repository

import (
	"context"
	"database/sql"
	"time"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// PostgreSQLRevocationRepository stores revoked refresh tokens in PostgreSQL.
type PostgreSQLRevocationRepository struct {
	db *sql.DB
}

// NewPostgreSQLRevocationRepository creates a new PostgreSQLRevocationRepository.
func NewPostgreSQLRevocationRepository(db *sql.DB) *PostgreSQLRevocationRepository {
	return &PostgreSQLRevocationRepository{db: db}
}

// Create records a revocation. Revoking the same jti twice is not an error.
func (r *PostgreSQLRevocationRepository) Create(ctx context.Context, token *authDomain.RevokedToken) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO revoked_tokens (jti, user_id, expires_at, revoked_at)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (jti) DO NOTHING`

	_, err := querier.ExecContext(ctx, query, token.JTI, token.UserID, token.ExpiresAt, token.RevokedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to revoke token")
	}
	return nil
}

// IsRevoked reports whether jti has been revoked.
func (r *PostgreSQLRevocationRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	var revoked bool
	err := querier.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)`, jti).
		Scan(&revoked)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check token revocation")
	}
	return revoked, nil
}

// DeleteExpired removes revocations whose token expired before the given time.
// With dryRun it only counts them.
func (r *PostgreSQLRevocationRepository) DeleteExpired(
	ctx context.Context,
	before time.Time,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	if dryRun {
		var count int64
		err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM revoked_tokens WHERE expires_at < $1`, before).
			Scan(&count)
		if err != nil {
			return 0, apperrors.Wrap(err, "failed to count expired revocations")
		}
		return count, nil
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired revocations")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return count, nil
}
