// Package repository implements audit log persistence for PostgreSQL and MySQL.
//
// Entries are append-only. The only delete path is DeleteOlderThan, used by the
// clean-audit-logs command.
package repository

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
)

const auditColumns = `id, action, actor_id, resource_type, resource_id, outcome, metadata,
		ip_address, user_agent, correlation_id, signature, created_at`

type dialect struct {
	placeholder func(n int) string
	like        string
	uuidArg     func(id uuid.UUID) (any, error)
}

// buildAuditFilter translates a filter into a WHERE clause and its arguments.
func buildAuditFilter(filter auditDomain.AuditLogFilter, d dialect) (string, []any, error) {
	var conditions []string
	var args []any

	add := func(condition string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, strings.ReplaceAll(condition, "?", d.placeholder(len(args))))
	}

	if action := strings.TrimSpace(filter.Action); action != "" {
		add("action "+d.like+" ?", likePattern(action))
	}
	if resourceType := strings.TrimSpace(filter.ResourceType); resourceType != "" {
		add("resource_type "+d.like+" ?", likePattern(resourceType))
	}
	if filter.Outcome != "" {
		add("outcome = ?", string(filter.Outcome))
	}
	if filter.ActorID != nil {
		value, err := d.uuidArg(*filter.ActorID)
		if err != nil {
			return "", nil, err
		}
		add("actor_id = ?", value)
	}
	if filter.CorrelationID != "" {
		add("correlation_id = ?", filter.CorrelationID)
	}
	if filter.CreatedAtFrom != nil {
		add("created_at >= ?", filter.CreatedAtFrom.UTC())
	}
	if filter.CreatedAtTo != nil {
		add("created_at <= ?", filter.CreatedAtTo.UTC())
	}

	if len(conditions) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}

func likePattern(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(s)) + "%"
}

// marshalMetadata returns nil for a nil map so it is stored as NULL.
func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	return json.Marshal(metadata)
}

func unmarshalMetadata(data []byte) (map[string]any, error) {
	if data == nil {
		return nil, nil
	}
	var metadata map[string]any
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, err
	}
	return metadata, nil
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func nullableJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
