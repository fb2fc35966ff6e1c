// Package http provides HTTP handlers for reading the audit trail.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	"github.com/allisson/gatekeeper/internal/audit/http/dto"
	auditUseCase "github.com/allisson/gatekeeper/internal/audit/usecase"
	"github.com/allisson/gatekeeper/internal/httputil"
)

// AuditLogHandler handles HTTP requests for audit log operations.
type AuditLogHandler struct {
	auditLogUseCase auditUseCase.AuditLogUseCase
	logger          *slog.Logger
}

// NewAuditLogHandler creates a new audit log handler with required dependencies.
func NewAuditLogHandler(
	auditLogUseCase auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUseCase: auditLogUseCase,
		logger:          logger,
	}
}

// ListHandler retrieves audit logs with pagination and optional filters.
// GET /v1/audit-logs?action=&resource_type=&outcome=&actor_id=&correlation_id=
// &created_at_from=&created_at_to=&offset=0&limit=50
// Requires audit.view. Entries are ordered newest first. Both time boundaries
// are RFC3339, converted to UTC and inclusive.
func (h *AuditLogHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	auditLogs, err := h.auditLogUseCase.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAuditLogsToListResponse(auditLogs))
}

// GetHandler retrieves a single audit log entry.
// GET /v1/audit-logs/:id. Requires audit.view.
func (h *AuditLogHandler) GetHandler(c *gin.Context) {
	id, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	auditLog, err := h.auditLogUseCase.Get(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAuditLogToResponse(auditLog))
}

func parseFilter(c *gin.Context) (auditDomain.AuditLogFilter, error) {
	filter := auditDomain.AuditLogFilter{
		Action:        c.Query("action"),
		ResourceType:  c.Query("resource_type"),
		CorrelationID: c.Query("correlation_id"),
	}

	if raw := c.Query("outcome"); raw != "" {
		outcome := auditDomain.Outcome(raw)
		if !outcome.IsValid() {
			return filter, fmt.Errorf("invalid outcome parameter: must be success or failure")
		}
		filter.Outcome = outcome
	}

	actorID, err := httputil.ParseOptionalUUIDQuery(c, "actor_id")
	if err != nil {
		return filter, err
	}
	filter.ActorID = actorID

	if filter.CreatedAtFrom, err = httputil.ParseOptionalTimeQuery(c, "created_at_from"); err != nil {
		return filter, err
	}
	if filter.CreatedAtTo, err = httputil.ParseOptionalTimeQuery(c, "created_at_to"); err != nil {
		return filter, err
	}

	if filter.CreatedAtFrom != nil && filter.CreatedAtTo != nil && filter.CreatedAtFrom.After(*filter.CreatedAtTo) {
		return filter, fmt.Errorf("created_at_from must be before or equal to created_at_to")
	}

	return filter, nil
}
