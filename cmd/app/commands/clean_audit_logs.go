package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	auditUseCase "github.com/allisson/gatekeeper/internal/audit/usecase"
)

// RunCleanAuditLogs deletes audit logs older than the given number of days.
// With dryRun it only reports how many entries would be removed.
func RunCleanAuditLogs(
	ctx context.Context,
	auditLogUseCase auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
	writer io.Writer,
	days int,
	dryRun bool,
	format string,
) error {
	if days <= 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("cleaning audit logs",
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)

	count, err := auditLogUseCase.DeleteOlderThan(ctx, days, dryRun)
	if err != nil {
		return fmt.Errorf("failed to delete audit logs: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, map[string]any{
			"count":   count,
			"days":    days,
			"dry_run": dryRun,
		}); err != nil {
			return err
		}
	} else if dryRun {
		_, _ = fmt.Fprintf(writer, "Dry-run mode: Would delete %d audit log(s) older than %d day(s)\n", count, days)
	} else {
		_, _ = fmt.Fprintf(writer, "Successfully deleted %d audit log(s) older than %d day(s)\n", count, days)
	}

	logger.Info("cleanup completed",
		slog.Int64("count", count),
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)

	return nil
}
