package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/user/domain"
)

var postgresDialect = dialect{
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	like:        "ILIKE",
	uuidArg:     func(id uuid.UUID) (any, error) { return id, nil },
}

// PostgreSQLUserRepository handles user persistence for PostgreSQL.
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a new PostgreSQLUserRepository.
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{db: db}
}

// Create inserts a new user.
func (r *PostgreSQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO users (id, email, first_name, last_name, password, is_active, token_version,
			  role_id, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := querier.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Password,
		user.IsActive,
		user.TokenVersion,
		nullableUUID(user.RoleID),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return translateWriteError(err, "failed to create user")
	}
	return nil
}

// GetByID retrieves a user by ID, including its role name.
func (r *PostgreSQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + userColumns + ` ` + userFrom + ` WHERE u.id = $1`

	user, err := scanPostgreSQLUser(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user by id")
	}
	return user, nil
}

// GetByEmail retrieves a user by email. The email must already be normalized.
func (r *PostgreSQLUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + userColumns + ` ` + userFrom + ` WHERE u.email = $1`

	user, err := scanPostgreSQLUser(querier.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user by email")
	}
	return user, nil
}

// List retrieves users matching filter with pagination.
func (r *PostgreSQLUserRepository) List(
	ctx context.Context,
	filter domain.UserFilter,
	offset, limit int,
) ([]*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	where, args, err := buildUserFilter(filter, postgresDialect)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build user filter")
	}

	query := fmt.Sprintf(
		"SELECT %s %s%s%s LIMIT $%d OFFSET $%d",
		userColumns,
		userFrom,
		where,
		orderClause(filter.OrderBy),
		len(args)+1,
		len(args)+2,
	)
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users")
	}
	defer rows.Close() //nolint:errcheck

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanPostgreSQLUser(rows)
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
func (r *PostgreSQLUserRepository) Update(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users
			  SET first_name = $1,
			      last_name = $2,
			      role_id = $3,
			      updated_at = $4
			  WHERE id = $5`

	result, err := querier.ExecContext(
		ctx,
		query,
		user.FirstName,
		user.LastName,
		nullableUUID(user.RoleID),
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return translateWriteError(err, "failed to update user")
	}

	return requireAffected(result, "failed to update user")
}

// Deactivate clears is_active and increments token_version in one statement.
// Returns the new generation.
func (r *PostgreSQLUserRepository) Deactivate(ctx context.Context, id uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users
			  SET is_active = FALSE, token_version = token_version + 1, updated_at = NOW()
			  WHERE id = $1
			  RETURNING token_version`

	var version int64
	if err := querier.QueryRowContext(ctx, query, id).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrUserNotFound
		}
		return 0, apperrors.Wrap(err, "failed to deactivate user")
	}
	return version, nil
}

// UpdatePassword replaces the password hash and increments token_version in one
// statement. Returns the new generation.
func (r *PostgreSQLUserRepository) UpdatePassword(
	ctx context.Context,
	id uuid.UUID,
	passwordHash string,
) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users
			  SET password = $2, token_version = token_version + 1, updated_at = NOW()
			  WHERE id = $1
			  RETURNING token_version`

	var version int64
	if err := querier.QueryRowContext(ctx, query, id, passwordHash).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrUserNotFound
		}
		return 0, apperrors.Wrap(err, "failed to update user password")
	}
	return version, nil
}

// TouchLastLogin stamps last_login_at.
func (r *PostgreSQLUserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users SET last_login_at = $1 WHERE id = $2`

	if _, err := querier.ExecContext(ctx, query, at, id); err != nil {
		return apperrors.Wrap(err, "failed to update last login")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgreSQLUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var roleID uuid.NullUUID

	err := row.Scan(
		&user.ID,
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

	if roleID.Valid {
		user.RoleID = &roleID.UUID
	}
	return &user, nil
}

func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

func translateWriteError(err error, message string) error {
	switch {
	case database.IsUniqueViolation(err):
		return domain.ErrUserAlreadyExists
	case database.IsForeignKeyViolation(err):
		return domain.ErrRoleNotFound
	default:
		return apperrors.Wrap(err, message)
	}
}

func requireAffected(result sql.Result, message string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, message)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
