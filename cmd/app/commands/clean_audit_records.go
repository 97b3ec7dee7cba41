package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wishcraft/gatekeeper/internal/app"
	"github.com/wishcraft/gatekeeper/internal/config"
)

// RunCleanAuditRecords deletes signed audit records older than the retention
// period. A positive days argument overrides the configured
// AUDIT_RETENTION_DAYS value.
//
// Requirements: Database must be migrated and accessible.
func RunCleanAuditRecords(ctx context.Context, days int) error {
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	// Load configuration
	cfg := config.Load()

	retention := cfg.AuditRetention
	if days > 0 {
		retention = time.Duration(days) * 24 * time.Hour
	}

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()
	logger.Info("cleaning audit records",
		slog.Duration("retention", retention),
	)

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	// Get audit use case from container
	auditUseCase, err := container.AuditUseCase(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize audit use case: %w", err)
	}

	deleted, err := auditUseCase.Clean(ctx, retention)
	if err != nil {
		return fmt.Errorf("failed to clean audit records: %w", err)
	}

	fmt.Printf("Successfully deleted %d audit record(s)\n", deleted)

	return nil
}
