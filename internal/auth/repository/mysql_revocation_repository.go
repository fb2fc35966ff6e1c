package repository

import (
	"context"
	"database/sql"
	"time"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// MySQLRevocationRepository stores revoked refresh tokens in MySQL.
type MySQLRevocationRepository struct {
	db *sql.DB
}

// NewMySQLRevocationRepository creates a new MySQLRevocationRepository.
func NewMySQLRevocationRepository(db *sql.DB) *MySQLRevocationRepository {
	return &MySQLRevocationRepository{db: db}
}

// Create records a revocation. Revoking the same jti twice is not an error.
func (r *MySQLRevocationRepository) Create(ctx context.Context, token *authDomain.RevokedToken) error {
	querier := database.GetTx(ctx, r.db)

	userID, err := token.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `INSERT IGNORE INTO revoked_tokens (jti, user_id, expires_at, revoked_at)
			  VALUES (?, ?, ?, ?)`

	if _, err := querier.ExecContext(ctx, query, token.JTI, userID, token.ExpiresAt, token.RevokedAt); err != nil {
		return apperrors.Wrap(err, "failed to revoke token")
	}
	return nil
}

// IsRevoked reports whether jti has been revoked.
func (r *MySQLRevocationRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	var revoked bool
	err := querier.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ?)`, jti).
		Scan(&revoked)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check token revocation")
	}
	return revoked, nil
}

// DeleteExpired removes revocations whose token expired before the given time.
// With dryRun it only counts them.
func (r *MySQLRevocationRepository) DeleteExpired(ctx context.Context, before time.Time, dryRun bool) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	if dryRun {
		var count int64
		err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM revoked_tokens WHERE expires_at < ?`, before).
			Scan(&count)
		if err != nil {
			return 0, apperrors.Wrap(err, "failed to count expired revocations")
		}
		return count, nil
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired revocations")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return count, nil
}
