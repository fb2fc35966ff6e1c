package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/gatekeeper/internal/database"
	"github.com/allisson/gatekeeper/internal/testutil"
	"github.com/allisson/gatekeeper/internal/user/domain"
)

var userRowColumns = []string{
	"id", "email", "first_name", "last_name", "password", "is_active", "token_version",
	"role_id", "role_name", "last_login_at", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db, mock
}

func TestPostgreSQLUserRepository_Deactivate_SQL(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLUserRepository(db)
	userID := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(regexp.QuoteMeta(
		"SET is_active = FALSE, token_version = token_version + 1, updated_at = NOW()",
	)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"token_version"}).AddRow(int64(4)))

	version, err := repo.Deactivate(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLUserRepository_Deactivate_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("RETURNING token_version")).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Deactivate(context.Background(), uuid.Must(uuid.NewV7()))
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLUserRepository_UpdatePassword_SQL(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLUserRepository(db)
	userID := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(regexp.QuoteMeta(
		"SET password = $2, token_version = token_version + 1, updated_at = NOW()",
	)).
		WithArgs(userID, "new-hash").
		WillReturnRows(sqlmock.NewRows([]string{"token_version"}).AddRow(int64(1)))

	version, err := repo.UpdatePassword(context.Background(), userID, "new-hash")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLUserRepository_UpdatePassword_DatabaseError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("RETURNING token_version")).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.UpdatePassword(context.Background(), uuid.Must(uuid.NewV7()), "hash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to update user password")
	assert.NotErrorIs(t, err, domain.ErrUserNotFound)
}

func TestPostgreSQLUserRepository_Update_NeverTouchesCounter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLUserRepository(db)
	roleID := uuid.Must(uuid.NewV7())
	user := &domain.User{
		ID:        uuid.Must(uuid.NewV7()),
		FirstName: "Jane",
		LastName:  "Doe",
		RoleID:    &roleID,
		UpdatedAt: time.Now().UTC(),
	}

	mock.ExpectExec(`UPDATE users\s+SET first_name = \$1,\s+last_name = \$2,\s+role_id = \$3,\s+updated_at = \$4\s+WHERE id = \$5`).
		WithArgs("Jane", "Doe", roleID, sqlmock.AnyArg(), user.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), user))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLUserRepository_Update_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLUserRepository(db)

	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &domain.User{ID: uuid.Must(uuid.NewV7())})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestPostgreSQLUserRepository_Create_Errors(t *testing.T) {
	tests := []struct {
		name     string
		dbErr    error
		expected error
	}{
		{"duplicate email", &pq.Error{Code: "23505"}, domain.ErrUserAlreadyExists},
		{"unknown role", &pq.Error{Code: "23503"}, domain.ErrRoleNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPostgreSQLUserRepository(db)

			mock.ExpectExec("INSERT INTO users").WillReturnError(tt.dbErr)

			err := repo.Create(context.Background(), &domain.User{ID: uuid.Must(uuid.NewV7())})
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestPostgreSQLUserRepository_GetByID_ScansRole(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLUserRepository(db)
	userID := uuid.Must(uuid.NewV7())
	roleID := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users u LEFT JOIN roles r ON r.id = u.role_id WHERE u.id = $1")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			userID.String(), "jane@example.com", "Jane", "Doe", "hash", true, int64(2),
			roleID.String(), "Supervisor", nil, now, now,
		))

	user, err := repo.GetByID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, int64(2), user.TokenVersion)
	require.NotNil(t, user.RoleID)
	assert.Equal(t, roleID, *user.RoleID)
	assert.Equal(t, "Supervisor", user.RoleName)
	assert.Nil(t, user.LastLoginAt)
}

func TestPostgreSQLUserRepository_GetByID_NoRole(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLUserRepository(db)
	userID := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			userID.String(), "jane@example.com", "Jane", "Doe", "hash", true, int64(0),
			nil, "", now, now, now,
		))

	user, err := repo.GetByID(context.Background(), userID)
	require.NoError(t, err)
	assert.Nil(t, user.RoleID)
	assert.False(t, user.HasRole())
	require.NotNil(t, user.LastLoginAt)
}

func TestPostgreSQLUserRepository_GetByEmail_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLUserRepository(db)

	mock.ExpectQuery("SELECT").WithArgs("nobody@example.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestPostgreSQLUserRepository_List_SQL(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLUserRepository(db)
	active := true

	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE u.is_active = $1 ORDER BY u.email ASC LIMIT $2 OFFSET $3",
	)).
		WithArgs(true, 25, 50).
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	users, err := repo.List(context.Background(), domain.UserFilter{
		IsActive: &active,
		OrderBy:  domain.OrderByEmail,
	}, 50, 25)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLUserRepository_Integration(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLUserRepository(db)
	ctx := context.Background()
	roleID := testutil.CreateTestRole(t, db, "postgres", "Auditor", "audit.view")
	now := time.Now().UTC().Truncate(time.Microsecond)

	user := &domain.User{
		ID:        uuid.Must(uuid.NewV7()),
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Password:  "hash",
		IsActive:  true,
		RoleID:    &roleID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, user))

	err := repo.Create(ctx, &domain.User{ID: uuid.Must(uuid.NewV7()), Email: user.Email, Password: "x"})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	found, err := repo.GetByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "Auditor", found.RoleName)
	assert.Equal(t, int64(0), found.TokenVersion)

	users, err := repo.List(ctx, domain.UserFilter{Search: "DOE"}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	version, err := repo.Deactivate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	version, err = repo.Deactivate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version, "deactivating twice still bumps the counter")

	found, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, found.IsActive)
	assert.Equal(t, int64(2), found.TokenVersion)
}

func TestPostgreSQLUserRepository_ConcurrentBumps(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLUserRepository(db)
	txManager := database.NewTxManager(db)
	userID := testutil.CreateTestUser(t, db, "postgres", "race@example.com", nil)

	const workers = 25
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- txManager.WithTx(context.Background(), func(ctx context.Context) error {
				if i%2 == 0 {
					_, err := repo.Deactivate(ctx, userID)
					return err
				}
				_, err := repo.UpdatePassword(ctx, userID, "hash")
				return err
			})
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	user, err := repo.GetByID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), user.TokenVersion)
}
