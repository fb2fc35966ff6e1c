package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	auditUseCase "github.com/allisson/gatekeeper/internal/audit/usecase"
)

// RunVerifyAuditLogs recomputes the HMAC signature of every audit entry created in
// the given range and fails when any signed entry does not match.
func RunVerifyAuditLogs(
	ctx context.Context,
	auditLogUseCase auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
	writer io.Writer,
	startDate, endDate string,
	format string,
) error {
	start, err := parseDate(startDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	end, err := parseDate(endDate)
	if err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}

	if !end.After(start) {
		return fmt.Errorf("end date must be after start date")
	}
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("verifying audit logs",
		slog.Time("start_date", start),
		slog.Time("end_date", end),
	)

	report, err := auditLogUseCase.Verify(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to verify audit logs: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, verifyResult(report)); err != nil {
			return err
		}
	} else {
		outputVerifyText(writer, report, start, end)
	}

	logger.Info("verification completed",
		slog.Int64("total_checked", report.TotalChecked),
		slog.Int64("valid", report.ValidCount),
		slog.Int64("invalid", report.InvalidCount),
		slog.Int64("unsigned", report.UnsignedCount),
	)

	if report.InvalidCount > 0 {
		return fmt.Errorf("integrity check failed: %d invalid signature(s)", report.InvalidCount)
	}

	return nil
}

// parseDate accepts "YYYY-MM-DD" or "YYYY-MM-DD HH:MM:SS", interpreted as UTC.
func parseDate(dateStr string) (time.Time, error) {
	for _, layout := range []string{time.DateTime, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, dateStr, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid date format (expected YYYY-MM-DD or YYYY-MM-DD HH:MM:SS): %s",
		dateStr,
	)
}

func outputVerifyText(writer io.Writer, report *auditDomain.VerificationReport, start, end time.Time) {
	_, _ = fmt.Fprintf(writer, "Audit Log Integrity Verification\n")
	_, _ = fmt.Fprintf(writer, "=================================\n\n")
	_, _ = fmt.Fprintf(writer,
		"Time Range: %s to %s\n\n",
		start.Format(time.DateTime),
		end.Format(time.DateTime),
	)

	_, _ = fmt.Fprintf(writer, "Total Checked:  %d\n", report.TotalChecked)
	_, _ = fmt.Fprintf(writer, "Signed:         %d\n", report.SignedCount)
	_, _ = fmt.Fprintf(writer, "Unsigned:       %d\n", report.UnsignedCount)
	_, _ = fmt.Fprintf(writer, "Valid:          %d\n", report.ValidCount)
	_, _ = fmt.Fprintf(writer, "Invalid:        %d\n\n", report.InvalidCount)

	switch {
	case report.InvalidCount > 0:
		_, _ = fmt.Fprintf(writer, "WARNING: %d log(s) failed integrity check!\n\n", report.InvalidCount)
		_, _ = fmt.Fprintf(writer, "Invalid Log IDs:\n")
		for _, id := range report.InvalidLogs {
			_, _ = fmt.Fprintf(writer, "  - %s\n", id)
		}
		_, _ = fmt.Fprintf(writer, "\nStatus: FAILED\n")
	case report.TotalChecked == 0:
		_, _ = fmt.Fprintf(writer, "Status: No logs found in specified time range\n")
	default:
		_, _ = fmt.Fprintf(writer, "Status: PASSED\n")
	}
}

func verifyResult(report *auditDomain.VerificationReport) map[string]any {
	invalid := make([]string, 0, len(report.InvalidLogs))
	for _, id := range report.InvalidLogs {
		invalid = append(invalid, id.String())
	}
	return map[string]any{
		"total_checked":  report.TotalChecked,
		"signed_count":   report.SignedCount,
		"unsigned_count": report.UnsignedCount,
		"valid_count":    report.ValidCount,
		"invalid_count":  report.InvalidCount,
		"invalid_logs":   invalid,
		"passed":         report.InvalidCount == 0,
	}
}
