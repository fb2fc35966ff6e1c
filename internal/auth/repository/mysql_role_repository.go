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

// MySQLRoleRepository implements role and permission persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLRoleRepository struct {
	db *sql.DB
}

// NewMySQLRoleRepository creates a new MySQLRoleRepository.
func NewMySQLRoleRepository(db *sql.DB) *MySQLRoleRepository {
	return &MySQLRoleRepository{db: db}
}

// HasPermission reports whether the role grants the permission code.
func (r *MySQLRoleRepository) HasPermission(ctx context.Context, roleID uuid.UUID, code string) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	id, err := roleID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal role id")
	}

	query := `SELECT EXISTS (
				SELECT 1 FROM role_permissions rp
				JOIN permissions p ON p.id = rp.permission_id
				WHERE rp.role_id = ? AND p.code = ?
			  )`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, id, code).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check role permission")
	}
	return exists, nil
}

// ListPermissionCodes returns the codes granted to the role, sorted ascending.
func (r *MySQLRoleRepository) ListPermissionCodes(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	querier := database.GetTx(ctx, r.db)

	id, err := roleID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal role id")
	}

	query := `SELECT p.code FROM role_permissions rp
			  JOIN permissions p ON p.id = rp.permission_id
			  WHERE rp.role_id = ?
			  ORDER BY p.code ASC`

	rows, err := querier.QueryContext(ctx, query, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list role permissions")
	}
	defer rows.Close() //nolint:errcheck

	return scanCodes(rows)
}

// GetByName retrieves a role and its permission codes.
func (r *MySQLRoleRepository) GetByName(ctx context.Context, name string) (*authDomain.Role, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, created_at FROM roles WHERE name = ?`

	return r.getRole(ctx, querier.QueryRowContext(ctx, query, name))
}

// GetByID retrieves a role and its permission codes.
func (r *MySQLRoleRepository) GetByID(ctx context.Context, id uuid.UUID) (*authDomain.Role, error) {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal role id")
	}

	query := `SELECT id, name, created_at FROM roles WHERE id = ?`

	return r.getRole(ctx, querier.QueryRowContext(ctx, query, idBytes))
}

func (r *MySQLRoleRepository) getRole(ctx context.Context, row *sql.Row) (*authDomain.Role, error) {
	var role authDomain.Role
	var id []byte

	if err := row.Scan(&id, &role.Name, &role.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrRoleNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get role")
	}

	if err := role.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal role id")
	}

	codes, err := r.ListPermissionCodes(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	role.Permissions = codes
	return &role, nil
}

// UpsertPermission inserts the permission or refreshes its description, returning its ID.
func (r *MySQLRoleRepository) UpsertPermission(ctx context.Context, seed authDomain.PermissionSeed) (uuid.UUID, error) {
	querier := database.GetTx(ctx, r.db)

	newID, err := uuid.Must(uuid.NewV7()).MarshalBinary()
	if err != nil {
		return uuid.Nil, apperrors.Wrap(err, "failed to marshal permission id")
	}

	query := `INSERT INTO permissions (id, code, description, created_at)
			  VALUES (?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE description = VALUES(description)`

	if _, err := querier.ExecContext(ctx, query, newID, seed.Code, seed.Description, time.Now().UTC()); err != nil {
		return uuid.Nil, apperrors.Wrap(err, "failed to upsert permission")
	}

	return selectBinaryID(ctx, querier, `SELECT id FROM permissions WHERE code = ?`, seed.Code, "permission")
}

// UpsertRole inserts the role if missing, returning its ID.
func (r *MySQLRoleRepository) UpsertRole(ctx context.Context, name string) (uuid.UUID, error) {
	querier := database.GetTx(ctx, r.db)

	newID, err := uuid.Must(uuid.NewV7()).MarshalBinary()
	if err != nil {
		return uuid.Nil, apperrors.Wrap(err, "failed to marshal role id")
	}

	query := `INSERT INTO roles (id, name, created_at)
			  VALUES (?, ?, ?)
			  ON DUPLICATE KEY UPDATE name = name`

	if _, err := querier.ExecContext(ctx, query, newID, name, time.Now().UTC()); err != nil {
		return uuid.Nil, apperrors.Wrap(err, "failed to upsert role")
	}

	return selectBinaryID(ctx, querier, `SELECT id FROM roles WHERE name = ?`, name, "role")
}

// ReplacePermissions sets the role's permission set to exactly permissionIDs.
// Call it inside a transaction.
func (r *MySQLRoleRepository) ReplacePermissions(
	ctx context.Context,
	roleID uuid.UUID,
	permissionIDs []uuid.UUID,
) error {
	querier := database.GetTx(ctx, r.db)

	roleBytes, err := roleID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal role id")
	}

	if _, err := querier.ExecContext(ctx, `DELETE FROM role_permissions WHERE role_id = ?`, roleBytes); err != nil {
		return apperrors.Wrap(err, "failed to clear role permissions")
	}

	query := `INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)`
	for _, permissionID := range permissionIDs {
		permissionBytes, err := permissionID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal permission id")
		}
		if _, err := querier.ExecContext(ctx, query, roleBytes, permissionBytes); err != nil {
			return apperrors.Wrap(err, "failed to grant role permission")
		}
	}
	return nil
}

// Clear deletes every role and permission. Users keep existing but lose their role.
func (r *MySQLRoleRepository) Clear(ctx context.Context) error {
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

func selectBinaryID(ctx context.Context, querier database.Querier, query string, arg any, kind string) (uuid.UUID, error) {
	var raw []byte
	if err := querier.QueryRowContext(ctx, query, arg).Scan(&raw); err != nil {
		return uuid.Nil, apperrors.Wrapf(err, "failed to get %s id", kind)
	}

	var id uuid.UUID
	if err := id.UnmarshalBinary(raw); err != nil {
		return uuid.Nil, apperrors.Wrapf(err, "failed to unmarshal %s id", kind)
	}
	return id, nil
}
