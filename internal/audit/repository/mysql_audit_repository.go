package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/wishcraft/gatekeeper/internal/audit/domain"
	"github.com/wishcraft/gatekeeper/internal/database"
	apperrors "github.com/wishcraft/gatekeeper/internal/errors"
)

// MySQLAuditRepository implements audit record persistence for MySQL.
// UUIDs are stored as CHAR(36).
type MySQLAuditRepository struct {
	db *sql.DB
}

// NewMySQLAuditRepository creates a new MySQL audit repository.
func NewMySQLAuditRepository(db *sql.DB) *MySQLAuditRepository {
	return &MySQLAuditRepository{db: db}
}

// Create inserts a new audit record. Handles nil detail as database NULL.
func (m *MySQLAuditRepository) Create(ctx context.Context, record *auditDomain.Record) error {
	querier := database.GetTx(ctx, m.db)

	var detailJSON []byte
	var err error

	if record.Detail != nil {
		detailJSON, err = json.Marshal(record.Detail)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit record detail")
		}
	}

	query := `INSERT INTO audit_records (id, request_id, topic, shop_domain, subject_id, status, detail, signature, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		record.ID.String(),
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
func (m *MySQLAuditRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*auditDomain.Record, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, request_id, topic, shop_domain, subject_id, status, detail, signature, created_at
			  FROM audit_records
			  ORDER BY id DESC
			  LIMIT ? OFFSET ?`

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
		var idStr string
		var detailJSON []byte
		var status string

		err := rows.Scan(
			&idStr,
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

		record.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse audit record id")
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
func (m *MySQLAuditRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM audit_records WHERE created_at < ?`

	res, err := querier.ExecContext(ctx, query, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit records")
	}

	affected, _ := res.RowsAffected()
	return affected, nil
}
