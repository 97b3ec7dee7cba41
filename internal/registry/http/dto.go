// Package http provides HTTP handlers for gift registry operations.
package http

import (
	"time"

	"github.com/jellydator/validation"

	registryDomain "github.com/wishcraft/gatekeeper/internal/registry/domain"
	appvalidation "github.com/wishcraft/gatekeeper/internal/validation"
)

// createRegistryRequest is the payload for creating a registry.
type createRegistryRequest struct {
	Title     string     `json:"title"`
	EventDate *time.Time `json:"event_date"`
}

func (c createRegistryRequest) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Title, validation.Required, appvalidation.NotBlank, validation.Length(1, 255)),
	)
}

// registryResponse is the API representation of a registry.
type registryResponse struct {
	ID         string     `json:"id"`
	ShopDomain string     `json:"shop_domain"`
	CustomerID string     `json:"customer_id"`
	Title      string     `json:"title"`
	EventDate  *time.Time `json:"event_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func makeRegistryResponse(registry *registryDomain.Registry) registryResponse {
	return registryResponse{
		ID:         registry.ID.String(),
		ShopDomain: registry.ShopDomain,
		CustomerID: registry.CustomerID,
		Title:      registry.Title,
		EventDate:  registry.EventDate,
		CreatedAt:  registry.CreatedAt,
		UpdatedAt:  registry.UpdatedAt,
	}
}

// listRegistriesResponse wraps a list of registries.
type listRegistriesResponse struct {
	Registries []registryResponse `json:"registries"`
}
