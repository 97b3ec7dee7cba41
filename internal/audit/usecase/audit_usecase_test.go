package usecase

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/wishcraft/gatekeeper/internal/audit/domain"
	"github.com/wishcraft/gatekeeper/internal/audit/mocks"
	auditService "github.com/wishcraft/gatekeeper/internal/audit/service"
)

func newTestUsecase(t *testing.T, repo *mocks.MockRepository) (*AuditUsecase, auditService.RecordSigner) {
	t.Helper()

	signer, err := auditService.NewRecordSigner([]byte("audit-usecase-test-secret"))
	require.NoError(t, err)

	return NewAuditUsecase(repo, signer, slog.Default()), signer
}

func TestListVerifiesSignatures(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MockRepository{}
	uc, signer := newTestUsecase(t, repo)

	valid := auditDomain.NewRecord("req-1", "customers/redact", "example.myshopify.com",
		"C123", auditDomain.StatusCompleted, nil)
	signature, err := signer.Sign(valid)
	require.NoError(t, err)
	valid.Signature = signature

	tampered := auditDomain.NewRecord("req-2", "shop/redact", "example.myshopify.com",
		"", auditDomain.StatusCompleted, nil)
	tampered.Signature = []byte("forged")

	repo.On("List", ctx, 0, 10).Return([]*auditDomain.Record{valid, tampered}, nil)

	// Tampered records are surfaced, not hidden; the caller sees both.
	records, err := uc.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	repo.AssertExpectations(t)
}

func TestListPropagatesRepositoryError(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MockRepository{}
	uc, _ := newTestUsecase(t, repo)

	repo.On("List", ctx, 0, 10).Return(nil, errors.New("connection refused"))

	_, err := uc.List(ctx, 0, 10)
	require.Error(t, err)
}

func TestClean(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MockRepository{}
	uc, _ := newTestUsecase(t, repo)

	repo.On("DeleteOlderThan", ctx, mock.AnythingOfType("time.Time")).Return(int64(7), nil)

	deleted, err := uc.Clean(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)

	// The cutoff passed to the repository is retention in the past.
	cutoff := repo.Calls[0].Arguments.Get(1).(time.Time)
	assert.WithinDuration(t, time.Now().UTC().Add(-30*24*time.Hour), cutoff, time.Minute)
}

func TestCleanPropagatesRepositoryError(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MockRepository{}
	uc, _ := newTestUsecase(t, repo)

	repo.On("DeleteOlderThan", ctx, mock.AnythingOfType("time.Time")).
		Return(int64(0), errors.New("connection refused"))

	_, err := uc.Clean(ctx, time.Hour)
	require.Error(t, err)
}
