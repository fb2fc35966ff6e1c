package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	"github.com/allisson/gatekeeper/internal/testutil"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db, mock
}

func TestPostgreSQLRoleRepository_HasPermission_SQL(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLRoleRepository(db)
	roleID := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(regexp.QuoteMeta("WHERE rp.role_id = $1 AND p.code = $2")).
		WithArgs(roleID, authDomain.PermUsersDelete).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.HasPermission(context.Background(), roleID, authDomain.PermUsersDelete)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLRoleRepository_HasPermission_Error(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLRoleRepository(db)

	mock.ExpectQuery("SELECT EXISTS").WillReturnError(errors.New("connection reset"))

	ok, err := repo.HasPermission(context.Background(), uuid.Must(uuid.NewV7()), authDomain.PermUsersView)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestPostgreSQLRoleRepository_ListPermissionCodes(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLRoleRepository(db)
	roleID := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY p.code ASC")).
		WithArgs(roleID).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("audit.view").AddRow("users.view"))

	codes, err := repo.ListPermissionCodes(context.Background(), roleID)
	require.NoError(t, err)
	assert.Equal(t, []string{"audit.view", "users.view"}, codes)
}

func TestPostgreSQLRoleRepository_GetByName_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLRoleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM roles WHERE name = $1")).
		WithArgs("Ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByName(context.Background(), "Ghost")
	assert.ErrorIs(t, err, authDomain.ErrRoleNotFound)
}

func TestPostgreSQLRoleRepository_UpsertPermission_SQL(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLRoleRepository(db)
	existing := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (code) DO UPDATE SET description = EXCLUDED.description")).
		WithArgs(sqlmock.AnyArg(), "users.view", "View users", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existing.String()))

	id, err := repo.UpsertPermission(context.Background(), authDomain.PermissionSeed{
		Code:        "users.view",
		Description: "View users",
	})
	require.NoError(t, err)
	assert.Equal(t, existing, id)
}

func TestPostgreSQLRoleRepository_ReplacePermissions_SQL(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLRoleRepository(db)
	roleID := uuid.Must(uuid.NewV7())
	first := uuid.Must(uuid.NewV7())
	second := uuid.Must(uuid.NewV7())

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM role_permissions WHERE role_id = $1")).
		WithArgs(roleID).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO role_permissions")).
		WithArgs(roleID, first).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO role_permissions")).
		WithArgs(roleID, second).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReplacePermissions(context.Background(), roleID, []uuid.UUID{first, second}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLRoleRepository_Clear(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLRoleRepository(db)

	mock.ExpectExec("DELETE FROM role_permissions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM roles").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM permissions").WillReturnError(errors.New("locked"))

	err := repo.Clear(context.Background())
	assert.ErrorContains(t, err, "failed to clear authorization catalog")
}

func TestPostgreSQLRoleRepository_Integration(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRoleRepository(db)
	ctx := context.Background()

	roleID := testutil.CreateTestRole(t, db, "postgres", "Operator", authDomain.PermUsersView)

	ok, err := repo.HasPermission(ctx, roleID, authDomain.PermUsersView)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.HasPermission(ctx, roleID, authDomain.PermUsersDelete)
	require.NoError(t, err)
	assert.False(t, ok)

	deleteID, err := repo.UpsertPermission(ctx, authDomain.PermissionSeed{Code: authDomain.PermUsersDelete})
	require.NoError(t, err)
	again, err := repo.UpsertPermission(ctx, authDomain.PermissionSeed{Code: authDomain.PermUsersDelete})
	require.NoError(t, err)
	assert.Equal(t, deleteID, again)

	require.NoError(t, repo.ReplacePermissions(ctx, roleID, []uuid.UUID{deleteID}))

	ok, err = repo.HasPermission(ctx, roleID, authDomain.PermUsersDelete)
	require.NoError(t, err)
	assert.True(t, ok, "new grant is visible on the next lookup")

	role, err := repo.GetByName(ctx, "Operator")
	require.NoError(t, err)
	assert.Equal(t, roleID, role.ID)
	assert.Equal(t, []string{authDomain.PermUsersDelete}, role.Permissions)
	assert.WithinDuration(t, time.Now(), role.CreatedAt, time.Minute)
}
