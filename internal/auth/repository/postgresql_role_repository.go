// Package repository implements persistence for the authorization catalog and
// the refresh-token revocation set.
//
// Role and permission lookups never cache: every call reads current state so a
// role reassignment is visible on the next request.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// PostgreSQLRoleRepository implements role and permission persistence for PostgreSQL.
type PostgreSQLRoleRepository struct {
	db *sql.DB
}

// NewPostgreSQLRoleRepository creates a new PostgreSQLRoleRepository.
func NewPostgreSQLRoleRepository(db *sql.DB) *PostgreSQLRoleRepository {
	return &PostgreSQLRoleRepository{db: db}
}

// HasPermission reports whether the role grants the permission code.
func (r *PostgreSQLRoleRepository) HasPermission(ctx context.Context, roleID uuid.UUID, code string) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT EXISTS (
				SELECT 1 FROM role_permissions rp
				JOIN permissions p ON p.id = rp.permission_id
				WHERE rp.role_id = $1 AND p.code = $2
			  )`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, roleID, code).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check role permission")
	}
	return exists, nil
}

// ListPermissionCodes returns the codes granted to the role, sorted ascending.
func (r *PostgreSQLRoleRepository) ListPermissionCodes(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT p.code FROM role_permissions rp
			  JOIN permissions p ON p.id = rp.permission_id
			  WHERE rp.role_id = $1
			  ORDER BY p.code ASC`

	rows, err := querier.QueryContext(ctx, query, roleID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list role permissions")
	}
	defer rows.Close() //nolint:errcheck

	return scanCodes(rows)
}

// GetByName retrieves a role and its permission codes.
func (r *PostgreSQLRoleRepository) GetByName(ctx context.Context, name string) (*authDomain.Role, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, created_at FROM roles WHERE name = $1`

	return r.getRole(ctx, querier.QueryRowContext(ctx, query, name))
}

// GetByID retrieves a role and its permission codes.
func (r *PostgreSQLRoleRepository) GetByID(ctx context.Context, id uuid.UUID) (*authDomain.Role, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, created_at FROM roles WHERE id = $1`

	return r.getRole(ctx, querier.QueryRowContext(ctx, query, id))
}

func (r *PostgreSQLRoleRepository) getRole(ctx context.Context, row *sql.Row) (*authDomain.Role, error) {
	var role authDomain.Role
	if err := row.Scan(&role.ID, &role.Name, &role.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrRoleNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get role")
	}

	codes, err := r.ListPermissionCodes(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	role.Permissions = codes
	return &role, nil
}

// UpsertPermission inserts the permission or refreshes its description, returning its ID.
func (r *PostgreSQLRoleRepository) UpsertPermission(
	ctx context.Context,
	seed authDomain.PermissionSeed,
) (uuid.UUID, error) {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO permissions (id, code, description, created_at)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (code) DO UPDATE SET description = EXCLUDED.description
			  RETURNING id`

	var id uuid.UUID
	err := querier.QueryRowContext(ctx, query, uuid.Must(uuid.NewV7()), seed.Code, seed.Description, time.Now().UTC()).
		Scan(&id)
	if err != nil {
		return uuid.Nil, apperrors.Wrap(err, "failed to upsert permission")
	}
	return id, nil
}

// UpsertRole inserts the role if missing, returning its ID.
func (r *PostgreSQLRoleRepository) UpsertRole(ctx context.Context, name string) (uuid.UUID, error) {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO roles (id, name, created_at)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			  RETURNING id`

	var id uuid.UUID
	if err := querier.QueryRowContext(ctx, query, uuid.Must(uuid.NewV7()), name, time.Now().UTC()).Scan(&id); err != nil {
		return uuid.Nil, apperrors.Wrap(err, "failed to upsert role")
	}
	return id, nil
}

// ReplacePermissions sets the role's permission set to exactly permissionIDs.
// Call it inside a transaction.
func (r *PostgreSQLRoleRepository) ReplacePermissions(
	ctx context.Context,
	roleID uuid.UUID,
	permissionIDs []uuid.UUID,
) error {
	querier := database.GetTx(ctx, r.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return apperrors.Wrap(err, "failed to clear role permissions")
	}

	query := `INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`
	for _, permissionID := range permissionIDs {
		if _, err := querier.ExecContext(ctx, query, roleID, permissionID); err != nil {
			return apperrors.Wrap(err, "failed to grant role permission")
		}
	}
	return nil
}

// Clear deletes every role and permission. Users keep existing but lose their role.
func (r *PostgreSQLRoleRepository) Clear(ctx context.Context) error {
	querier := database.GetTx(ctx, r.db)

	for _, query := range []string{
		`DELETE FROM role_permissions`,
		`DELETE FROM roles`,
		`DELETE FROM permissions`,
	} {
		if _, err := querier.ExecContext(ctx, query); err != nil {
			return apperrors.Wrap(err, "failed to clear authorization catalog")
		}
	}
	return nil
}

func scanCodes(rows *sql.Rows) ([]string, error) {
	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan permission code")
		}
		codes = append(codes, code)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate permission codes")
	}
	return codes, nil
}
