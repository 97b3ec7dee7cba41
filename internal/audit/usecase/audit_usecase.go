// Package usecase implements audit record business logic.
package usecase

import (
	"context"
	"log/slog"
	"time"

	auditDomain "github.com/wishcraft/gatekeeper/internal/audit/domain"
	auditService "github.com/wishcraft/gatekeeper/internal/audit/service"
)

// AuditUsecase implements audit record retention and review operations.
type AuditUsecase struct {
	repository auditDomain.Repository
	signer     auditService.RecordSigner
	logger     *slog.Logger
}

// NewAuditUsecase creates a new audit usecase.
func NewAuditUsecase(
	repository auditDomain.Repository,
	signer auditService.RecordSigner,
	logger *slog.Logger,
) *AuditUsecase {
	return &AuditUsecase{repository: repository, signer: signer, logger: logger}
}

// List retrieves audit records, newest first, verifying each signature.
// A record that fails verification is still returned so reviewers can see it,
// but the tamper is logged at WARN.
func (u *AuditUsecase) List(ctx context.Context, offset, limit int) ([]*auditDomain.Record, error) {
	records, err := u.repository.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		if err := u.signer.Verify(record); err != nil {
			u.logger.Warn("audit record failed signature verification",
				slog.String("record_id", record.ID.String()),
				slog.String("topic", record.Topic),
			)
		}
	}

	return records, nil
}

// Clean deletes audit records older than the retention period.
func (u *AuditUsecase) Clean(ctx context.Context, retention time.Duration) (int64, error) {
	before := time.Now().UTC().Add(-retention)

	deleted, err := u.repository.DeleteOlderThan(ctx, before)
	if err != nil {
		return 0, err
	}

	u.logger.Info("audit records cleaned",
		slog.Int64("deleted", deleted),
		slog.Time("before", before),
	)

	return deleted, nil
}
