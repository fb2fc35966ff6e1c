// Package repository implements user persistence for PostgreSQL and MySQL.
//
// Both implementations take their querier from database.GetTx, so they join any
// transaction opened by TxManager.WithTx. The generation counter is only ever
// changed by Deactivate and UpdatePassword, each a single UPDATE statement that
// increments token_version in place.
package repository

import (
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/user/domain"
)

const userColumns = `u.id, u.email, u.first_name, u.last_name, u.password, u.is_active,
		u.token_version, u.role_id, COALESCE(r.name, ''), u.last_login_at, u.created_at, u.updated_at`

const userFrom = `FROM users u LEFT JOIN roles r ON r.id = u.role_id`

// dialect captures the syntax differences between PostgreSQL and MySQL.
type dialect struct {
	placeholder func(n int) string
	like        string
	uuidArg     func(id uuid.UUID) (any, error)
}

// whereBuilder accumulates conditions and their positional arguments.
type whereBuilder struct {
	d          dialect
	conditions []string
	args       []any
}

func (w *whereBuilder) add(condition string, arg any) {
	w.args = append(w.args, arg)
	w.conditions = append(w.conditions, strings.ReplaceAll(condition, "?", w.d.placeholder(len(w.args))))
}

func (w *whereBuilder) sql() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conditions, " AND ")
}

// buildUserFilter translates a filter into a WHERE clause and its arguments.
func buildUserFilter(filter domain.UserFilter, d dialect) (string, []any, error) {
	w := &whereBuilder{d: d}

	if email := strings.TrimSpace(filter.Email); email != "" {
		w.add("u.email "+d.like+" ?", likePattern(email))
	}

	if filter.RoleID != nil {
		value, err := d.uuidArg(*filter.RoleID)
		if err != nil {
			return "", nil, err
		}
		w.add("u.role_id = ?", value)
	}

	if filter.IsActive != nil {
		w.add("u.is_active = ?", *filter.IsActive)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := likePattern(search)
		parts := make([]string, 0, 3)
		for _, column := range []string{"u.email", "u.first_name", "u.last_name"} {
			w.args = append(w.args, pattern)
			parts = append(parts, column+" "+d.like+" "+d.placeholder(len(w.args)))
		}
		w.conditions = append(w.conditions, "("+strings.Join(parts, " OR ")+")")
	}

	return w.sql(), w.args, nil
}

// orderClause maps a whitelisted ordering to SQL. Unknown values fall back to newest first.
func orderClause(o domain.UserOrdering) string {
	switch o {
	case domain.OrderByCreatedAtAsc:
		return " ORDER BY u.created_at ASC, u.id ASC"
	case domain.OrderByEmail:
		return " ORDER BY u.email ASC"
	case domain.OrderByLastName:
		return " ORDER BY u.last_name ASC, u.first_name ASC, u.id ASC"
	default:
		return " ORDER BY u.created_at DESC, u.id DESC"
	}
}

// likePattern escapes LIKE wildcards and wraps s for substring matching.
func likePattern(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(s)) + "%"
}
