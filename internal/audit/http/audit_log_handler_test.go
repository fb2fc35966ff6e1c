package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	"github.com/allisson/gatekeeper/internal/audit/http/dto"
	auditMocks "github.com/allisson/gatekeeper/internal/audit/usecase/mocks"
)

func setupAuditRouter(t *testing.T) (*gin.Engine, *auditMocks.MockAuditLogUseCase) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	useCase := &auditMocks.MockAuditLogUseCase{}
	handler := NewAuditLogHandler(useCase, slog.New(slog.NewTextHandler(io.Discard, nil)))

	router := gin.New()
	router.GET("/v1/audit-logs", handler.ListHandler)
	router.GET("/v1/audit-logs/:id", handler.GetHandler)

	t.Cleanup(func() { useCase.AssertExpectations(t) })
	return router, useCase
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestAuditLogHandler_ListHandler(t *testing.T) {
	t.Run("Success_AllFilters", func(t *testing.T) {
		router, useCase := setupAuditRouter(t)
		actor := uuid.Must(uuid.NewV7())
		from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 2, 14, 23, 59, 59, 0, time.UTC)

		useCase.On("List", mock.Anything, mock.MatchedBy(func(f auditDomain.AuditLogFilter) bool {
			return f.Action == auditDomain.ActionLogin &&
				f.ResourceType == auditDomain.ResourceSession &&
				f.Outcome == auditDomain.OutcomeFailure &&
				f.ActorID != nil && *f.ActorID == actor &&
				f.CorrelationID == "req-1" &&
				f.CreatedAtFrom != nil && f.CreatedAtFrom.Equal(from) &&
				f.CreatedAtTo != nil && f.CreatedAtTo.Equal(to)
		}), 0, 20).Return([]*auditDomain.AuditLog{
			{ID: uuid.Must(uuid.NewV7()), Action: auditDomain.ActionLogin, Outcome: auditDomain.OutcomeFailure},
		}, nil).Once()

		w := get(router, "/v1/audit-logs?action=auth.login&resource_type=session&outcome=failure"+
			"&actor_id="+actor.String()+"&correlation_id=req-1"+
			"&created_at_from=2026-02-01T00:00:00Z&created_at_to=2026-02-15T01:59:59%2B02:00&limit=20")

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.ListAuditLogsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Data, 1)
	})

	t.Run("Error_InvalidOutcome", func(t *testing.T) {
		router, _ := setupAuditRouter(t)

		w := get(router, "/v1/audit-logs?outcome=SUCCESS")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_InvertedRange", func(t *testing.T) {
		router, _ := setupAuditRouter(t)

		w := get(router, "/v1/audit-logs?created_at_from=2026-02-14T00:00:00Z&created_at_to=2026-02-01T00:00:00Z")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_InvalidTimestamp", func(t *testing.T) {
		router, _ := setupAuditRouter(t)

		w := get(router, "/v1/audit-logs?created_at_from=yesterday")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_LimitTooLarge", func(t *testing.T) {
		router, _ := setupAuditRouter(t)

		w := get(router, "/v1/audit-logs?limit=1000")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuditLogHandler_GetHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		router, useCase := setupAuditRouter(t)
		id := uuid.Must(uuid.NewV7())

		useCase.On("Get", mock.Anything, id).Return(&auditDomain.AuditLog{
			ID:        id,
			Action:    auditDomain.ActionUserCreated,
			Outcome:   auditDomain.OutcomeSuccess,
			Signature: make([]byte, 32),
		}, nil).Once()

		w := get(router, "/v1/audit-logs/"+id.String())

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.AuditLogResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Signed)
		assert.NotContains(t, w.Body.String(), "signature")
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		router, useCase := setupAuditRouter(t)
		id := uuid.Must(uuid.NewV7())

		useCase.On("Get", mock.Anything, id).Return(nil, auditDomain.ErrAuditLogNotFound).Once()

		w := get(router, "/v1/audit-logs/"+id.String())

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
