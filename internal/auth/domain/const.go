// Package domain defines authentication and authorization domain models.
// Implements role-based access control with generation-bound bearer tokens.
package domain

// TokenType discriminates access tokens from refresh tokens. A token is only
// accepted by endpoints expecting its type.
type TokenType string

const (
	// AccessToken authenticates API requests.
	AccessToken TokenType = "access"

	// RefreshToken can only be exchanged for a new access token.
	RefreshToken TokenType = "refresh"
)

// Permission codes in "<domain>.<action>" format.
const (
	PermUsersView   = "users.view"
	PermUsersCreate = "users.create"
	PermUsersEdit   = "users.edit"
	PermUsersDelete = "users.delete"

	PermAuditView = "audit.view"

	PermReportsView   = "reports.view"
	PermReportsExport = "reports.export"

	PermReconciliationRun    = "reconciliation.run"
	PermReconciliationView   = "reconciliation.view"
	PermReconciliationExport = "reconciliation.export"

	PermDashboardView = "dashboard.view"
	PermAdminFull     = "admin.full"
)
