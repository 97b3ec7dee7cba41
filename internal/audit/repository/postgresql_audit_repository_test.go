package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/wishcraft/gatekeeper/internal/audit/domain"
)

func TestPostgreSQLAuditRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	repo := NewPostgreSQLAuditRepository(db)
	record := auditDomain.NewRecord(
		"req-123", "customers/redact", "example.myshopify.com", "C123",
		auditDomain.StatusCompleted, map[string]any{"registries_deleted": 2},
	)
	record.Signature = []byte("sig")

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO audit_records`)).
		WithArgs(
			record.ID,
			record.RequestID,
			record.Topic,
			record.ShopDomain,
			record.SubjectID,
			string(record.Status),
			[]byte(`{"registries_deleted":2}`),
			record.Signature,
			record.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Create(context.Background(), record)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLAuditRepository_Create_NilDetail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	repo := NewPostgreSQLAuditRepository(db)
	record := auditDomain.NewRecord(
		"req-456", "shop/redact", "example.myshopify.com", "example.myshopify.com",
		auditDomain.StatusFailed, nil,
	)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO audit_records`)).
		WithArgs(
			record.ID,
			record.RequestID,
			record.Topic,
			record.ShopDomain,
			record.SubjectID,
			string(record.Status),
			nil,
			nil,
			record.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Create(context.Background(), record)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLAuditRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	repo := NewPostgreSQLAuditRepository(db)
	record := auditDomain.NewRecord(
		"req-123", "customers/data_request", "example.myshopify.com", "C123",
		auditDomain.StatusCompleted, nil,
	)

	rows := sqlmock.NewRows([]string{
		"id", "request_id", "topic", "shop_domain", "subject_id",
		"status", "detail", "signature", "created_at",
	}).AddRow(
		record.ID, record.RequestID, record.Topic, record.ShopDomain, record.SubjectID,
		string(record.Status), nil, []byte("sig"), record.CreatedAt,
	)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, request_id`)).
		WithArgs(10, 0).
		WillReturnRows(rows)

	records, err := repo.List(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, record.ID, records[0].ID)
	assert.Equal(t, auditDomain.StatusCompleted, records[0].Status)
	assert.Nil(t, records[0].Detail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLAuditRepository_DeleteOlderThan(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	repo := NewPostgreSQLAuditRepository(db)
	before := time.Now().UTC().Add(-365 * 24 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM audit_records WHERE created_at < $1`)).
		WithArgs(before).
		WillReturnResult(sqlmock.NewResult(0, 42))

	deleted, err := repo.DeleteOlderThan(context.Background(), before)
	require.NoError(t, err)
	assert.Equal(t, int64(42), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
