package usecase

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	userDomain "github.com/allisson/gatekeeper/internal/user/domain"
)

// permissionUseCase implements PermissionUseCase.
type permissionUseCase struct {
	roleRepo RoleRepository
	logger   *slog.Logger
}

// NewPermissionUseCase creates a new PermissionUseCase.
func NewPermissionUseCase(roleRepo RoleRepository, logger *slog.Logger) PermissionUseCase {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &permissionUseCase{
		roleRepo: roleRepo,
		logger:   logger.With(slog.String("component", "permissions")),
	}
}

func (p *permissionUseCase) HasPermission(ctx context.Context, user *userDomain.User, code string) bool {
	if !eligible(user) || strings.TrimSpace(code) == "" {
		return false
	}

	ok, err := p.roleRepo.HasPermission(ctx, *user.RoleID, code)
	if err != nil {
		p.logger.ErrorContext(ctx, "permission lookup failed, denying",
			slog.String("user_id", user.ID.String()),
			slog.String("permission", code),
			slog.Any("error", err),
		)
		return false
	}
	return ok
}

func (p *permissionUseCase) HasAnyPermission(ctx context.Context, user *userDomain.User, codes ...string) bool {
	granted, ok := p.granted(ctx, user, codes)
	if !ok {
		return false
	}
	return slices.ContainsFunc(codes, func(code string) bool {
		_, found := slices.BinarySearch(granted, code)
		return found
	})
}

func (p *permissionUseCase) HasAllPermissions(ctx context.Context, user *userDomain.User, codes ...string) bool {
	granted, ok := p.granted(ctx, user, codes)
	if !ok {
		return false
	}
	for _, code := range codes {
		if _, found := slices.BinarySearch(granted, code); !found {
			return false
		}
	}
	return true
}

func (p *permissionUseCase) ListPermissions(ctx context.Context, user *userDomain.User) ([]string, error) {
	if !eligible(user) {
		return []string{}, nil
	}
	return p.roleRepo.ListPermissionCodes(ctx, *user.RoleID)
}

// granted loads the user's sorted permission codes. ok is false whenever the
// decision must be a denial.
func (p *permissionUseCase) granted(ctx context.Context, user *userDomain.User, codes []string) ([]string, bool) {
	if !eligible(user) || len(codes) == 0 {
		return nil, false
	}

	granted, err := p.roleRepo.ListPermissionCodes(ctx, *user.RoleID)
	if err != nil {
		p.logger.ErrorContext(ctx, "permission lookup failed, denying",
			slog.String("user_id", user.ID.String()),
			slog.Any("permissions", codes),
			slog.Any("error", err),
		)
		return nil, false
	}

	granted = slices.Clone(granted)
	slices.Sort(granted)
	return granted, true
}

func eligible(user *userDomain.User) bool {
	return user != nil && user.IsActive && user.HasRole()
}
