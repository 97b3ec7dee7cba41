// Package usecase implements processing of mandatory privacy webhooks.
package usecase

import (
	"context"
	"fmt"
	"log/slog"

	auditDomain "github.com/wishcraft/gatekeeper/internal/audit/domain"
	auditService "github.com/wishcraft/gatekeeper/internal/audit/service"
	"github.com/wishcraft/gatekeeper/internal/database"
	apperrors "github.com/wishcraft/gatekeeper/internal/errors"
	registryDomain "github.com/wishcraft/gatekeeper/internal/registry/domain"
	webhookDomain "github.com/wishcraft/gatekeeper/internal/webhook/domain"
)

// GDPRUsecase processes the three mandatory privacy topics. Redactions run
// their cascading deletes and the audit record in one transaction so a
// partial redact never commits; every call leaves a signed audit record
// whatever the outcome.
type GDPRUsecase struct {
	registryRepo registryDomain.Repository
	auditRepo    auditDomain.Repository
	signer       auditService.RecordSigner
	txManager    database.TxManager
	logger       *slog.Logger
}

// NewGDPRUsecase creates a new GDPR usecase.
func NewGDPRUsecase(
	registryRepo registryDomain.Repository,
	auditRepo auditDomain.Repository,
	signer auditService.RecordSigner,
	txManager database.TxManager,
	logger *slog.Logger,
) *GDPRUsecase {
	return &GDPRUsecase{
		registryRepo: registryRepo,
		auditRepo:    auditRepo,
		signer:       signer,
		txManager:    txManager,
		logger:       logger,
	}
}

// DataRequest assembles the full export of a customer's stored data.
// A customer with no data exports empty collections, not an error.
func (u *GDPRUsecase) DataRequest(
	ctx context.Context,
	requestID string,
	payload *webhookDomain.CustomersDataRequestPayload,
) (*registryDomain.CustomerExport, error) {
	export, err := u.registryRepo.ExportByCustomer(ctx, payload.ShopDomain, payload.Customer.ID)
	if err != nil {
		u.recordFailure(ctx, requestID, webhookDomain.TopicCustomersDataRequest,
			payload.ShopDomain, payload.Customer.ID, err)
		return nil, apperrors.Wrap(apperrors.ErrDataOperation, err.Error())
	}

	detail := map[string]any{
		"registries": len(export.Registries),
		"items":      len(export.Items),
		"purchases":  len(export.Purchases),
	}

	record := auditDomain.NewRecord(
		requestID,
		string(webhookDomain.TopicCustomersDataRequest),
		payload.ShopDomain,
		payload.Customer.ID,
		auditDomain.StatusCompleted,
		detail,
	)
	if err := u.createSignedRecord(ctx, record); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDataOperation, err.Error())
	}

	u.logger.Info("customer data request processed",
		slog.String("request_id", requestID),
		slog.String("shop_domain", payload.ShopDomain),
	)

	return export, nil
}

// CustomerRedact deletes a customer's registries and anonymizes their
// purchases in a single transaction. Replays of an already-redacted customer
// complete with zero counts.
func (u *GDPRUsecase) CustomerRedact(
	ctx context.Context,
	requestID string,
	payload *webhookDomain.CustomersRedactPayload,
) (*registryDomain.RedactionResult, error) {
	var result *registryDomain.RedactionResult

	err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		result, err = u.registryRepo.DeleteByCustomer(ctx, payload.ShopDomain, payload.Customer.ID)
		if err != nil {
			return err
		}

		if payload.Customer.Email != "" {
			result.PurchasesAnonymized, err = u.registryRepo.AnonymizePurchasesByEmail(
				ctx, payload.ShopDomain, payload.Customer.Email,
			)
			if err != nil {
				return err
			}
		}

		record := auditDomain.NewRecord(
			requestID,
			string(webhookDomain.TopicCustomersRedact),
			payload.ShopDomain,
			payload.Customer.ID,
			auditDomain.StatusCompleted,
			redactionDetail(result),
		)
		return u.createSignedRecord(ctx, record)
	})
	if err != nil {
		u.recordFailure(ctx, requestID, webhookDomain.TopicCustomersRedact,
			payload.ShopDomain, payload.Customer.ID, err)
		return nil, apperrors.Wrap(apperrors.ErrDataOperation, err.Error())
	}

	u.logger.Info("customer redacted",
		slog.String("request_id", requestID),
		slog.String("shop_domain", payload.ShopDomain),
		slog.Int64("registries_deleted", result.RegistriesDeleted),
	)

	return result, nil
}

// ShopRedact deletes everything stored for a shop in a single transaction.
func (u *GDPRUsecase) ShopRedact(
	ctx context.Context,
	requestID string,
	payload *webhookDomain.ShopRedactPayload,
) (*registryDomain.RedactionResult, error) {
	var result *registryDomain.RedactionResult

	err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		result, err = u.registryRepo.DeleteByShop(ctx, payload.ShopDomain)
		if err != nil {
			return err
		}

		record := auditDomain.NewRecord(
			requestID,
			string(webhookDomain.TopicShopRedact),
			payload.ShopDomain,
			payload.ShopDomain,
			auditDomain.StatusCompleted,
			redactionDetail(result),
		)
		return u.createSignedRecord(ctx, record)
	})
	if err != nil {
		u.recordFailure(ctx, requestID, webhookDomain.TopicShopRedact,
			payload.ShopDomain, payload.ShopDomain, err)
		return nil, apperrors.Wrap(apperrors.ErrDataOperation, err.Error())
	}

	u.logger.Info("shop redacted",
		slog.String("request_id", requestID),
		slog.String("shop_domain", payload.ShopDomain),
		slog.Int64("registries_deleted", result.RegistriesDeleted),
	)

	return result, nil
}

// createSignedRecord signs a record and persists it.
func (u *GDPRUsecase) createSignedRecord(ctx context.Context, record *auditDomain.Record) error {
	signature, err := u.signer.Sign(record)
	if err != nil {
		return fmt.Errorf("failed to sign audit record: %w", err)
	}
	record.Signature = signature

	return u.auditRepo.Create(ctx, record)
}

// recordFailure writes a failed-status audit record outside the rolled-back
// transaction, best effort. The original error is already being returned;
// losing the failure record only costs forensics, not correctness.
func (u *GDPRUsecase) recordFailure(
	ctx context.Context,
	requestID string,
	topic webhookDomain.Topic,
	shopDomain, subjectID string,
	cause error,
) {
	record := auditDomain.NewRecord(
		requestID,
		string(topic),
		shopDomain,
		subjectID,
		auditDomain.StatusFailed,
		map[string]any{"error": cause.Error()},
	)

	if err := u.createSignedRecord(ctx, record); err != nil {
		u.logger.Error("failed to write failure audit record",
			slog.String("request_id", requestID),
			slog.String("topic", string(topic)),
			slog.Any("error", err),
		)
	}
}

// redactionDetail converts a redaction result to audit record detail.
func redactionDetail(result *registryDomain.RedactionResult) map[string]any {
	return map[string]any{
		"registries_deleted":   result.RegistriesDeleted,
		"items_deleted":        result.ItemsDeleted,
		"purchases_deleted":    result.PurchasesDeleted,
		"purchases_anonymized": result.PurchasesAnonymized,
	}
}
