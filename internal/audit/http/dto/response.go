// Package dto provides data transfer objects for the audit log HTTP layer.
package dto

import (
	"time"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
)

// AuditLogResponse represents an audit log entry in API responses.
type AuditLogResponse struct {
	ID            string         `json:"id"`
	Action        string         `json:"action"`
	ActorID       *string        `json:"actor_id"`
	ResourceType  string         `json:"resource_type"`
	ResourceID    string         `json:"resource_id"`
	Outcome       string         `json:"outcome"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	IPAddress     string         `json:"ip_address,omitempty"`
	UserAgent     string         `json:"user_agent,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Signed        bool           `json:"signed"`
	CreatedAt     time.Time      `json:"created_at"`
}

// MapAuditLogToResponse converts a domain audit log to an API response.
// The signature itself is not exposed.
func MapAuditLogToResponse(auditLog *auditDomain.AuditLog) AuditLogResponse {
	resp := AuditLogResponse{
		ID:            auditLog.ID.String(),
		Action:        auditLog.Action,
		ResourceType:  auditLog.ResourceType,
		ResourceID:    auditLog.ResourceID,
		Outcome:       string(auditLog.Outcome),
		Metadata:      auditLog.Metadata,
		IPAddress:     auditLog.IPAddress,
		UserAgent:     auditLog.UserAgent,
		CorrelationID: auditLog.CorrelationID,
		Signed:        auditLog.IsSigned(),
		CreatedAt:     auditLog.CreatedAt,
	}
	if auditLog.ActorID != nil {
		actor := auditLog.ActorID.String()
		resp.ActorID = &actor
	}
	return resp
}

// ListAuditLogsResponse represents a paginated list of audit logs in API responses.
type ListAuditLogsResponse struct {
	Data []AuditLogResponse `json:"data"`
}

// MapAuditLogsToListResponse converts a slice of domain audit logs to a list API response.
func MapAuditLogsToListResponse(auditLogs []*auditDomain.AuditLog) ListAuditLogsResponse {
	responses := make([]AuditLogResponse, 0, len(auditLogs))
	for _, auditLog := range auditLogs {
		responses = append(responses, MapAuditLogToResponse(auditLog))
	}
	return ListAuditLogsResponse{Data: responses}
}
