package httputil

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// ParsePagination safely parses and validates offset and limit query parameters.
// It uses default values of 0 for offset and 50 for limit.
// The limit cannot exceed 100.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("invalid offset parameter: must be a non-negative integer")
	}

	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 || limit > maxLimit {
		return 0, 0, fmt.Errorf("invalid limit parameter: must be between 1 and %d", maxLimit)
	}

	return offset, limit, nil
}

// ParseUUIDParam parses a UUID path parameter.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s parameter: must be a valid UUID", name)
	}
	return id, nil
}

// ParseOptionalUUIDQuery parses a UUID query parameter. Returns nil when absent.
func ParseOptionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s parameter: must be a valid UUID", name)
	}
	return &id, nil
}

// ParseOptionalBoolQuery parses a boolean query parameter. Returns nil when absent.
func ParseOptionalBoolQuery(c *gin.Context, name string) (*bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s parameter: must be a boolean", name)
	}
	return &v, nil
}

// ParseOptionalTimeQuery parses an RFC3339 query parameter and converts it to UTC.
// Returns nil when absent.
func ParseOptionalTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s format: must be RFC3339 (e.g., 2026-02-14T10:30:00Z)", name)
	}
	utc := t.UTC()
	return &utc, nil
}
