package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/wishcraft/gatekeeper/internal/audit/domain"
	auditMocks "github.com/wishcraft/gatekeeper/internal/audit/mocks"
	auditService "github.com/wishcraft/gatekeeper/internal/audit/service"
	apperrors "github.com/wishcraft/gatekeeper/internal/errors"
	registryDomain "github.com/wishcraft/gatekeeper/internal/registry/domain"
	registryMocks "github.com/wishcraft/gatekeeper/internal/registry/mocks"
	webhookDomain "github.com/wishcraft/gatekeeper/internal/webhook/domain"
)

// fakeTxManager runs the function without a real database transaction.
type fakeTxManager struct {
	beginErr error
}

func (f *fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	return fn(ctx)
}

type fixture struct {
	registryRepo *registryMocks.MockRepository
	auditRepo    *auditMocks.MockRepository
	signer       auditService.RecordSigner
	usecase      *GDPRUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	secret := make([]byte, 32)
	_, err := rand.Read(secret)
	require.NoError(t, err)

	signer, err := auditService.NewRecordSigner(secret)
	require.NoError(t, err)

	registryRepo := &registryMocks.MockRepository{}
	auditRepo := &auditMocks.MockRepository{}

	return &fixture{
		registryRepo: registryRepo,
		auditRepo:    auditRepo,
		signer:       signer,
		usecase: NewGDPRUsecase(
			registryRepo, auditRepo, signer, &fakeTxManager{}, slog.Default(),
		),
	}
}

func dataRequestPayload() *webhookDomain.CustomersDataRequestPayload {
	payload := &webhookDomain.CustomersDataRequestPayload{
		ShopID:     42,
		ShopDomain: "example.myshopify.com",
		Customer: webhookDomain.Customer{
			ID:    "C123",
			Email: "customer@example.com",
		},
	}
	payload.DataRequest.ID = 7
	return payload
}

func customerRedactPayload() *webhookDomain.CustomersRedactPayload {
	return &webhookDomain.CustomersRedactPayload{
		ShopID:     42,
		ShopDomain: "example.myshopify.com",
		Customer: webhookDomain.Customer{
			ID:    "C123",
			Email: "customer@example.com",
		},
	}
}

func TestGDPRUsecase_DataRequest(t *testing.T) {
	f := newFixture(t)

	export := &registryDomain.CustomerExport{
		ShopDomain: "example.myshopify.com",
		CustomerID: "C123",
		Registries: []registryDomain.Registry{{Title: "Wedding"}},
		Items:      []registryDomain.Item{},
		Purchases:  []registryDomain.Purchase{},
	}
	f.registryRepo.On("ExportByCustomer", mock.Anything, "example.myshopify.com", "C123").
		Return(export, nil)

	var created *auditDomain.Record
	f.auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Record")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*auditDomain.Record)
		}).
		Return(nil)

	got, err := f.usecase.DataRequest(context.Background(), "req-1", dataRequestPayload())
	require.NoError(t, err)
	assert.Equal(t, export, got)

	require.NotNil(t, created)
	assert.Equal(t, auditDomain.StatusCompleted, created.Status)
	assert.Equal(t, string(webhookDomain.TopicCustomersDataRequest), created.Topic)
	assert.Equal(t, "C123", created.SubjectID)
	assert.NoError(t, f.signer.Verify(created))
	f.registryRepo.AssertExpectations(t)
	f.auditRepo.AssertExpectations(t)
}

func TestGDPRUsecase_DataRequest_StoreFailure(t *testing.T) {
	f := newFixture(t)

	f.registryRepo.On("ExportByCustomer", mock.Anything, "example.myshopify.com", "C123").
		Return(nil, errors.New("connection reset"))

	var created *auditDomain.Record
	f.auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Record")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*auditDomain.Record)
		}).
		Return(nil)

	export, err := f.usecase.DataRequest(context.Background(), "req-1", dataRequestPayload())
	assert.ErrorIs(t, err, apperrors.ErrDataOperation)
	assert.Nil(t, export)

	// The failure itself is audited.
	require.NotNil(t, created)
	assert.Equal(t, auditDomain.StatusFailed, created.Status)
	assert.NoError(t, f.signer.Verify(created))
}

func TestGDPRUsecase_CustomerRedact(t *testing.T) {
	f := newFixture(t)

	f.registryRepo.On("DeleteByCustomer", mock.Anything, "example.myshopify.com", "C123").
		Return(&registryDomain.RedactionResult{
			RegistriesDeleted: 2,
			ItemsDeleted:      5,
			PurchasesDeleted:  3,
		}, nil)
	f.registryRepo.On("AnonymizePurchasesByEmail", mock.Anything, "example.myshopify.com", "customer@example.com").
		Return(int64(4), nil)

	var created *auditDomain.Record
	f.auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Record")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*auditDomain.Record)
		}).
		Return(nil)

	result, err := f.usecase.CustomerRedact(context.Background(), "req-2", customerRedactPayload())
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.RegistriesDeleted)
	assert.Equal(t, int64(4), result.PurchasesAnonymized)

	require.NotNil(t, created)
	assert.Equal(t, auditDomain.StatusCompleted, created.Status)
	assert.NoError(t, f.signer.Verify(created))
	f.registryRepo.AssertExpectations(t)
}

func TestGDPRUsecase_CustomerRedact_Replay(t *testing.T) {
	f := newFixture(t)

	// Second delivery of the same redact: nothing left to delete.
	f.registryRepo.On("DeleteByCustomer", mock.Anything, "example.myshopify.com", "C123").
		Return(&registryDomain.RedactionResult{}, nil)
	f.registryRepo.On("AnonymizePurchasesByEmail", mock.Anything, "example.myshopify.com", "customer@example.com").
		Return(int64(0), nil)
	f.auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Record")).Return(nil)

	result, err := f.usecase.CustomerRedact(context.Background(), "req-2", customerRedactPayload())
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.RegistriesDeleted)
}

func TestGDPRUsecase_CustomerRedact_NoEmail(t *testing.T) {
	f := newFixture(t)

	payload := customerRedactPayload()
	payload.Customer.Email = ""

	f.registryRepo.On("DeleteByCustomer", mock.Anything, "example.myshopify.com", "C123").
		Return(&registryDomain.RedactionResult{RegistriesDeleted: 1}, nil)
	f.auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Record")).Return(nil)

	result, err := f.usecase.CustomerRedact(context.Background(), "req-2", payload)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.PurchasesAnonymized)
	f.registryRepo.AssertNotCalled(t, "AnonymizePurchasesByEmail",
		mock.Anything, mock.Anything, mock.Anything)
}

func TestGDPRUsecase_CustomerRedact_DeleteFailure(t *testing.T) {
	f := newFixture(t)

	f.registryRepo.On("DeleteByCustomer", mock.Anything, "example.myshopify.com", "C123").
		Return(nil, errors.New("deadlock detected"))

	var statuses []auditDomain.Status
	f.auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Record")).
		Run(func(args mock.Arguments) {
			statuses = append(statuses, args.Get(1).(*auditDomain.Record).Status)
		}).
		Return(nil)

	result, err := f.usecase.CustomerRedact(context.Background(), "req-2", customerRedactPayload())
	assert.ErrorIs(t, err, apperrors.ErrDataOperation)
	assert.Nil(t, result)
	assert.Equal(t, []auditDomain.Status{auditDomain.StatusFailed}, statuses)
}

func TestGDPRUsecase_CustomerRedact_AuditFailureRollsBack(t *testing.T) {
	f := newFixture(t)

	f.registryRepo.On("DeleteByCustomer", mock.Anything, "example.myshopify.com", "C123").
		Return(&registryDomain.RedactionResult{RegistriesDeleted: 1}, nil)
	f.registryRepo.On("AnonymizePurchasesByEmail", mock.Anything, "example.myshopify.com", "customer@example.com").
		Return(int64(0), nil)
	f.auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Record")).
		Return(errors.New("disk full"))

	// The audit record is part of the transaction; if it cannot be written
	// the redact must fail rather than complete unrecorded.
	_, err := f.usecase.CustomerRedact(context.Background(), "req-2", customerRedactPayload())
	assert.ErrorIs(t, err, apperrors.ErrDataOperation)
}

func TestGDPRUsecase_ShopRedact(t *testing.T) {
	f := newFixture(t)

	f.registryRepo.On("DeleteByShop", mock.Anything, "example.myshopify.com").
		Return(&registryDomain.RedactionResult{
			RegistriesDeleted: 7,
			ItemsDeleted:      20,
			PurchasesDeleted:  10,
		}, nil)

	var created *auditDomain.Record
	f.auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Record")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*auditDomain.Record)
		}).
		Return(nil)

	result, err := f.usecase.ShopRedact(context.Background(), "req-3", &webhookDomain.ShopRedactPayload{
		ShopID:     42,
		ShopDomain: "example.myshopify.com",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.RegistriesDeleted)

	require.NotNil(t, created)
	assert.Equal(t, "example.myshopify.com", created.SubjectID)
	assert.NoError(t, f.signer.Verify(created))
}

func TestGDPRUsecase_ShopRedact_TxBeginFailure(t *testing.T) {
	f := newFixture(t)
	f.usecase = NewGDPRUsecase(
		f.registryRepo, f.auditRepo, f.signer,
		&fakeTxManager{beginErr: errors.New("too many connections")},
		slog.Default(),
	)

	f.auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Record")).Return(nil)

	_, err := f.usecase.ShopRedact(context.Background(), "req-3", &webhookDomain.ShopRedactPayload{
		ShopDomain: "example.myshopify.com",
	})
	assert.ErrorIs(t, err, apperrors.ErrDataOperation)
	f.registryRepo.AssertNotCalled(t, "DeleteByShop", mock.Anything, mock.Anything)
}
