package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/user/domain"
)

var mysqlDialect = dialect{
	placeholder: func(int) string { return "?" },
	like:        "LIKE",
	uuidArg:     func(id uuid.UUID) (any, error) { return id.MarshalBinary() },
}

// MySQLUserRepository handles user persistence for MySQL. UUIDs are stored as BINARY(16).
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQLUserRepository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

// Create inserts a new user.
func (r *MySQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	id, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}
	roleID, err := nullableBinaryUUID(user.RoleID)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal role id")
	}

	query := `INSERT INTO users (id, email, first_name, last_name, password, is_active, token_version,
			  role_id, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Password,
		user.IsActive,
		user.TokenVersion,
		roleID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return translateWriteError(err, "failed to create user")
	}
	return nil
}

// GetByID retrieves a user by ID, including its role name.
func (r *MySQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `SELECT ` + userColumns + ` ` + userFrom + ` WHERE u.id = ?`

	user, err := scanMySQLUser(querier.QueryRowContext(ctx, query, idBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user by id")
	}
	return user, nil
}

// GetByEmail retrieves a user by email. The email must already be normalized.
func (r *MySQLUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + userColumns + ` ` + userFrom + ` WHERE u.email = ?`

	user, err := scanMySQLUser(querier.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user by email")
	}
	return user, nil
}

// List retrieves users matching filter with pagination.
func (r *MySQLUserRepository) List(
	ctx context.Context,
	filter domain.UserFilter,
	offset, limit int,
) ([]*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	where, args, err := buildUserFilter(filter, mysqlDialect)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build user filter")
	}

	query := fmt.Sprintf(
		"SELECT %s %s%s%s LIMIT ? OFFSET ?",
		userColumns,
		userFrom,
		where,
		orderClause(filter.OrderBy),
	)
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users")
	}
	defer rows.Close() //nolint:errcheck

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanMySQLUser(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan user")
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate users")
	}

	return users, nil
}

// Update persists profile fields and the role assignment. It never touches
// is_active, password or token_version.
func (r *MySQLUserRepository) Update(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	id, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}
	roleID, err := nullableBinaryUUID(user.RoleID)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal role id")
	}

	query := `UPDATE users
			  SET first_name = ?,
			      last_name = ?,
			      role_id = ?,
			      updated_at = ?
			  WHERE id = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		user.FirstName,
		user.LastName,
		roleID,
		user.UpdatedAt,
		id,
	)
	if err != nil {
		return translateWriteError(err, "failed to update user")
	}

	return requireAffected(result, "failed to update user")
}

// Deactivate clears is_active and increments token_version in one statement.
// The new generation is captured with LAST_INSERT_ID(expr), which MySQL reports
// back on the same statement result.
func (r *MySQLUserRepository) Deactivate(ctx context.Context, id uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `UPDATE users
			  SET is_active = FALSE, token_version = LAST_INSERT_ID(token_version + 1),
			      updated_at = CURRENT_TIMESTAMP(6)
			  WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, idBytes)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to deactivate user")
	}

	return bumpedVersion(result, "failed to deactivate user")
}

// UpdatePassword replaces the password hash and increments token_version in one
// statement. Returns the new generation.
func (r *MySQLUserRepository) UpdatePassword(
	ctx context.Context,
	id uuid.UUID,
	passwordHash string,
) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `UPDATE users
			  SET password = ?, token_version = LAST_INSERT_ID(token_version + 1),
			      updated_at = CURRENT_TIMESTAMP(6)
			  WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, passwordHash, idBytes)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to update user password")
	}

	return bumpedVersion(result, "failed to update user password")
}

// TouchLastLogin stamps last_login_at.
func (r *MySQLUserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `UPDATE users SET last_login_at = ? WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, at, idBytes); err != nil {
		return apperrors.Wrap(err, "failed to update last login")
	}
	return nil
}

func scanMySQLUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var id []byte
	var roleID []byte

	err := row.Scan(
		&id,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Password,
		&user.IsActive,
		&user.TokenVersion,
		&roleID,
		&user.RoleName,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := user.ID.UnmarshalBinary(id); err != nil {
		return nil, err
	}

	if len(roleID) > 0 {
		var parsed uuid.UUID
		if err := parsed.UnmarshalBinary(roleID); err != nil {
			return nil, err
		}
		user.RoleID = &parsed
	}

	return &user, nil
}

func nullableBinaryUUID(id *uuid.UUID) (any, error) {
	if id == nil {
		return nil, nil
	}
	return id.MarshalBinary()
}

func bumpedVersion(result sql.Result, message string) (int64, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, message)
	}
	if affected == 0 {
		return 0, domain.ErrUserNotFound
	}

	version, err := result.LastInsertId()
	if err != nil {
		return 0, apperrors.Wrap(err, message)
	}
	return version, nil
}
