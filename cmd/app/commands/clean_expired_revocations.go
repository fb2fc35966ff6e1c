package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	authUseCase "github.com/allisson/gatekeeper/internal/auth/usecase"
)

// RunCleanExpiredRevocations removes revocation records whose tokens have expired
// on their own. With dryRun it only counts them.
func RunCleanExpiredRevocations(
	ctx context.Context,
	tokenUseCase authUseCase.TokenUseCase,
	logger *slog.Logger,
	writer io.Writer,
	dryRun bool,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("cleaning expired revocations", slog.Bool("dry_run", dryRun))

	count, err := tokenUseCase.PruneRevocations(ctx, dryRun)
	if err != nil {
		return fmt.Errorf("failed to clean expired revocations: %w", err)
	}

	switch {
	case format == "json":
		if err := writeJSON(writer, map[string]any{"count": count, "dry_run": dryRun}); err != nil {
			return err
		}
	case dryRun:
		_, _ = fmt.Fprintf(writer, "Dry-run mode: Would delete %d expired revocation(s)\n", count)
	default:
		_, _ = fmt.Fprintf(writer, "Successfully deleted %d expired revocation(s)\n", count)
	}

	logger.Info("revocation cleanup completed", slog.Int64("count", count), slog.Bool("dry_run", dryRun))
	return nil
}
