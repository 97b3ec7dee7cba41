// Package repository implements audit record persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	auditDomain "github.com/wishcraft/gatekeeper/internal/audit/domain"
	"github.com/wishcraft/gatekeeper/internal/database"
	apperrors "github.com/wishcraft/gatekeeper/internal/errors"
)

// PostgreSQLAuditRepository implements audit record persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLAuditRepository struct {
	db *sql.DB
}

// NewPostgreSQLAuditRepository creates a new PostgreSQL audit repository.
func NewPostgreSQLAuditRepository(db *sql.DB) *PostgreSQLAuditRepository {
	return &PostgreSQLAuditRepository{db: db}
}

// Create inserts a new audit record. Handles nil detail as database NULL.
func (p *PostgreSQLAuditRepository) Create(ctx context.Context, record *auditDomain.Record) error {
	querier := database.GetTx(ctx, p.db)

	var detailJSON []byte
	var err error

	if record.Detail != nil {
		detailJSON, err = json.Marshal(record.Detail)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit record detail")
		}
	}

	query := `INSERT INTO audit_records (id, request_id, topic, shop_domain, subject_id, status, detail, signature, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = querier.ExecContext(
		ctx,
		query,
		record.ID,
		record.RequestID,
		record.Topic,
		record.ShopDomain,
		record.SubjectID,
		string(record.Status),
		detailJSON,
		record.Signature,
		record.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit record")
	}

	return nil
}

// List retrieves audit records ordered by ID descending (newest first).
func (p *PostgreSQLAuditRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*auditDomain.Record, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, request_id, topic, shop_domain, subject_id, status, detail, signature, created_at
			  FROM audit_records
			  ORDER BY id DESC
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit records")
	}
	defer func() {
		_ = rows.Close()
	}()

	records := make([]*auditDomain.Record, 0)
	for rows.Next() {
		var record auditDomain.Record
		var detailJSON []byte
		var status string

		err := rows.Scan(
			&record.ID,
			&record.RequestID,
			&record.Topic,
			&record.ShopDomain,
			&record.SubjectID,
			&status,
			&detailJSON,
			&record.Signature,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit record")
		}

		record.Status = auditDomain.Status(status)

		if detailJSON != nil {
			if err := json.Unmarshal(detailJSON, &record.Detail); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal audit record detail")
			}
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit records")
	}

	return records, nil
}

// DeleteOlderThan removes records created before the given time.
func (p *PostgreSQLAuditRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM audit_records WHERE created_at < $1`

	res, err := querier.ExecContext(ctx, query, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit records")
	}

	affected, _ := res.RowsAffected()
	return affected, nil
}
