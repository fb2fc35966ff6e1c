package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	authUseCase "github.com/allisson/gatekeeper/internal/auth/usecase"
)

// RunSeedAuthorization loads the default permission catalog and roles. With
// clearCatalog the existing catalog is removed first.
func RunSeedAuthorization(
	ctx context.Context,
	seedUseCase authUseCase.SeedUseCase,
	logger *slog.Logger,
	writer io.Writer,
	clearCatalog bool,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("seeding authorization catalog", slog.Bool("clear", clearCatalog))

	result, err := seedUseCase.SeedAuthorization(ctx, clearCatalog)
	if err != nil {
		return fmt.Errorf("failed to seed authorization: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, map[string]any{
			"permissions": result.Permissions,
			"roles":       result.Roles,
			"cleared":     result.Cleared,
		}); err != nil {
			return err
		}
	} else {
		if result.Cleared {
			_, _ = fmt.Fprintln(writer, "Existing authorization catalog cleared")
		}
		_, _ = fmt.Fprintf(writer, "Seeded %d permission(s) and %d role(s)\n", result.Permissions, result.Roles)
	}

	logger.Info("authorization seeded",
		slog.Int("permissions", result.Permissions),
		slog.Int("roles", result.Roles),
	)
	return nil
}
