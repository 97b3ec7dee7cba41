package http

import (
	"github.com/jellydator/validation"

	registryDomain "github.com/wishcraft/gatekeeper/internal/registry/domain"
	appvalidation "github.com/wishcraft/gatekeeper/internal/validation"
	webhookDomain "github.com/wishcraft/gatekeeper/internal/webhook/domain"
)

// customerRef validates the customer block of customer-scoped payloads.
func validateCustomer(customer *webhookDomain.Customer) error {
	return validation.ValidateStruct(customer,
		validation.Field(&customer.ID, validation.Required, appvalidation.NotBlank),
		validation.Field(&customer.Email, appvalidation.Email),
	)
}

// dataRequestRequest wraps the customers/data_request payload for binding.
type dataRequestRequest struct {
	webhookDomain.CustomersDataRequestPayload
}

func (r dataRequestRequest) Validate() error {
	if err := validation.ValidateStruct(&r.CustomersDataRequestPayload,
		validation.Field(&r.ShopDomain, validation.Required, appvalidation.ShopDomain),
	); err != nil {
		return err
	}
	return validateCustomer(&r.Customer)
}

// customersRedactRequest wraps the customers/redact payload for binding.
type customersRedactRequest struct {
	webhookDomain.CustomersRedactPayload
}

func (r customersRedactRequest) Validate() error {
	if err := validation.ValidateStruct(&r.CustomersRedactPayload,
		validation.Field(&r.ShopDomain, validation.Required, appvalidation.ShopDomain),
	); err != nil {
		return err
	}
	return validateCustomer(&r.Customer)
}

// shopRedactRequest wraps the shop/redact payload for binding.
type shopRedactRequest struct {
	webhookDomain.ShopRedactPayload
}

func (r shopRedactRequest) Validate() error {
	return validation.ValidateStruct(&r.ShopRedactPayload,
		validation.Field(&r.ShopDomain, validation.Required, appvalidation.ShopDomain),
	)
}

// redactResponse acknowledges a processed redaction with its row counts.
type redactResponse struct {
	Status              string `json:"status"`
	RegistriesDeleted   int64  `json:"registries_deleted"`
	ItemsDeleted        int64  `json:"items_deleted"`
	PurchasesDeleted    int64  `json:"purchases_deleted"`
	PurchasesAnonymized int64  `json:"purchases_anonymized"`
}

func makeRedactResponse(result *registryDomain.RedactionResult) redactResponse {
	return redactResponse{
		Status:              "completed",
		RegistriesDeleted:   result.RegistriesDeleted,
		ItemsDeleted:        result.ItemsDeleted,
		PurchasesDeleted:    result.PurchasesDeleted,
		PurchasesAnonymized: result.PurchasesAnonymized,
	}
}

// dataRequestResponse acknowledges a processed data request with the
// assembled export.
type dataRequestResponse struct {
	Status string                         `json:"status"`
	Export *registryDomain.CustomerExport `json:"export"`
}
