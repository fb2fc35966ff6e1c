package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
)

func TestMySQLAuditLogRepository_Create_BinaryIDs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLAuditLogRepository(db)
	actorID := uuid.Must(uuid.NewV7())

	auditLog := &auditDomain.AuditLog{
		ID:           uuid.Must(uuid.NewV7()),
		Action:       auditDomain.ActionAuthorizationDenied,
		ActorID:      &actorID,
		ResourceType: auditDomain.ResourceEndpoint,
		ResourceID:   "POST /v1/users/:id/deactivate",
		Outcome:      auditDomain.OutcomeFailure,
		Metadata:     map[string]any{"permission": "users.delete"},
		Signature:    []byte("sig"),
		CreatedAt:    time.Now().UTC(),
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WithArgs(
			auditLog.ID[:], "authorization.denied", actorID[:], "endpoint", auditLog.ResourceID,
			"failure", `{"permission":"users.delete"}`, "", "", "", []byte("sig"), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), auditLog))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLAuditLogRepository_Get(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLAuditLogRepository(db)
	id := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_logs WHERE id = ?")).
		WithArgs(id[:]).
		WillReturnRows(sqlmock.NewRows(auditRowColumns).AddRow(
			id[:], "auth.login", nil, "session", "", "failure", nil, "", "", "req", nil, now,
		))

	got, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Nil(t, got.ActorID)
	assert.Nil(t, got.Metadata)
	assert.False(t, got.IsSigned())
}

func TestMySQLAuditLogRepository_DeleteOlderThan(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLAuditLogRepository(db)
	cutoff := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM audit_logs WHERE created_at < ?")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 2))

	count, err := repo.DeleteOlderThan(context.Background(), cutoff, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
