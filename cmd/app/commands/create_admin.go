package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	userUseCase "github.com/allisson/gatekeeper/internal/user/usecase"
)

// CreateAdminInput holds the create-admin flags.
type CreateAdminInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// RunCreateAdmin creates an active account holding the named role. The operation
// is audited with a system actor. seed-authorization must have run first.
func RunCreateAdmin(
	ctx context.Context,
	users userUseCase.UseCase,
	roles userUseCase.RoleLookup,
	logger *slog.Logger,
	writer io.Writer,
	input CreateAdminInput,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if input.Role == "" {
		input.Role = authDomain.RoleAdministrator
	}

	role, err := roles.GetByName(ctx, input.Role)
	if err != nil {
		if apperrors.Is(err, authDomain.ErrRoleNotFound) {
			return fmt.Errorf("role %q not found, run seed-authorization first", input.Role)
		}
		return fmt.Errorf("failed to load role: %w", err)
	}

	user, err := users.CreateUser(ctx, uuid.Nil, userUseCase.CreateUserInput{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Password:  input.Password,
		RoleID:    &role.ID,
		IsActive:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, map[string]any{
			"id":    user.ID.String(),
			"email": user.Email,
			"role":  role.Name,
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer, "Created user %s (%s) with role %s\n", user.Email, user.ID, role.Name)
	}

	logger.Info("admin user created",
		slog.String("user_id", user.ID.String()),
		slog.String("role", role.Name),
	)
	return nil
}
