package domain

import (
	"github.com/allisson/gatekeeper/internal/errors"
)

// Authorization catalog errors.
var (
	// ErrRoleNotFound indicates a role with the specified name or ID was not found.
	ErrRoleNotFound = errors.Wrap(errors.ErrNotFound, "role not found")
)
