package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Permission is an atomic capability identified by its code.
type Permission struct {
	ID          uuid.UUID
	Code        string
	Description string
	CreatedAt   time.Time
}

// Role groups permissions. Users hold at most one role.
type Role struct {
	ID          uuid.UUID
	Name        string
	Permissions []string
	CreatedAt   time.Time
}

// PermissionSeed and RoleSeed describe the baseline authorization catalog.
type PermissionSeed struct {
	Code        string
	Description string
}

type RoleSeed struct {
	Name        string
	Permissions []string
}

// Role names of the baseline catalog.
const (
	RoleReadOnly      = "Read Only"
	RoleAnalyst       = "Analyst"
	RoleSupervisor    = "Supervisor"
	RoleAdministrator = "Administrator"
)

// DefaultPermissions is the permission catalog loaded by seed-authorization.
var DefaultPermissions = []PermissionSeed{
	{Code: PermReconciliationRun, Description: "Run the automatic reconciliation process"},
	{Code: PermReconciliationView, Description: "View reconciliation results and status"},
	{Code: PermReconciliationExport, Description: "Export reconciliation reports"},
	{Code: PermUsersView, Description: "View the list of users"},
	{Code: PermUsersCreate, Description: "Create new users"},
	{Code: PermUsersEdit, Description: "Edit existing users"},
	{Code: PermUsersDelete, Description: "Deactivate users"},
	{Code: PermAuditView, Description: "View the audit trail"},
	{Code: PermReportsView, Description: "View system reports"},
	{Code: PermReportsExport, Description: "Export reports"},
	{Code: PermDashboardView, Description: "View the main metrics dashboard"},
	{Code: PermAdminFull, Description: "Full access to administration"},
}

// DefaultRoles returns the role catalog. The Administrator role holds every
// permission in DefaultPermissions.
func DefaultRoles() []RoleSeed {
	all := make([]string, 0, len(DefaultPermissions))
	for _, p := range DefaultPermissions {
		all = append(all, p.Code)
	}
	sort.Strings(all)

	return []RoleSeed{
		{
			Name:        RoleReadOnly,
			Permissions: []string{PermDashboardView, PermReconciliationView, PermReportsView},
		},
		{
			Name: RoleAnalyst,
			Permissions: []string{
				PermDashboardView,
				PermReconciliationRun,
				PermReconciliationView,
				PermReportsExport,
				PermReportsView,
			},
		},
		{
			Name: RoleSupervisor,
			Permissions: []string{
				PermAuditView,
				PermDashboardView,
				PermReconciliationExport,
				PermReconciliationRun,
				PermReconciliationView,
				PermReportsExport,
				PermReportsView,
				PermUsersView,
			},
		},
		{
			Name:        RoleAdministrator,
			Permissions: all,
		},
	}
}

// SeedResult summarizes a seed-authorization run.
type SeedResult struct {
	Permissions int
	Roles       int
	Cleared     bool
}
