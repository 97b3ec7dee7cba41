// Package domain contains gift registry entities and repository contracts.
package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Registry represents a customer's gift registry in a shop.
type Registry struct {
	ID            uuid.UUID  `json:"id"`
	ShopDomain    string     `json:"shop_domain"`
	CustomerID    string     `json:"customer_id"`
	CustomerEmail string     `json:"customer_email"`
	Title         string     `json:"title"`
	EventDate     *time.Time `json:"event_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Item is a product entry on a registry.
type Item struct {
	ID         uuid.UUID `json:"id"`
	RegistryID uuid.UUID `json:"registry_id"`
	ProductID  string    `json:"product_id"`
	VariantID  string    `json:"variant_id"`
	Quantity   int       `json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
}

// Purchase records a gift bought off a registry item. Purchaser fields are
// personal data and get anonymized on customer redaction.
type Purchase struct {
	ID             uuid.UUID `json:"id"`
	ItemID         uuid.UUID `json:"item_id"`
	PurchaserEmail string    `json:"purchaser_email"`
	PurchaserName  string    `json:"purchaser_name"`
	Quantity       int       `json:"quantity"`
	CreatedAt      time.Time `json:"created_at"`
}

// CustomerExport bundles everything stored about one customer, assembled for
// a data access request.
type CustomerExport struct {
	ShopDomain string     `json:"shop_domain"`
	CustomerID string     `json:"customer_id"`
	Registries []Registry `json:"registries"`
	Items      []Item     `json:"items"`
	Purchases  []Purchase `json:"purchases"`
}

// RedactionResult reports how many rows a redaction touched. Zero counts are
// valid; redaction of an unknown customer or shop is a no-op, not an error.
type RedactionResult struct {
	RegistriesDeleted   int64 `json:"registries_deleted"`
	ItemsDeleted        int64 `json:"items_deleted"`
	PurchasesDeleted    int64 `json:"purchases_deleted"`
	PurchasesAnonymized int64 `json:"purchases_anonymized"`
}

// NewRegistry creates a new registry with a generated ID and timestamps.
func NewRegistry(shopDomain, customerID, customerEmail, title string, eventDate *time.Time) *Registry {
	now := time.Now().UTC()
	return &Registry{
		ID:            uuid.Must(uuid.NewV7()),
		ShopDomain:    shopDomain,
		CustomerID:    customerID,
		CustomerEmail: customerEmail,
		Title:         title,
		EventDate:     eventDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Repository defines the interface for registry persistence.
type Repository interface {
	// Create persists a new registry.
	Create(ctx context.Context, registry *Registry) error

	// GetByID retrieves a registry. Returns ErrNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*Registry, error)

	// ListByCustomer lists a customer's registries in a shop, newest first.
	ListByCustomer(ctx context.Context, shopDomain, customerID string) ([]*Registry, error)

	// ExportByCustomer collects all rows stored about one customer.
	ExportByCustomer(ctx context.Context, shopDomain, customerID string) (*CustomerExport, error)

	// DeleteByCustomer removes a customer's registries with their items and
	// purchases. Idempotent; deleting an unknown customer reports zero rows.
	DeleteByCustomer(ctx context.Context, shopDomain, customerID string) (*RedactionResult, error)

	// AnonymizePurchasesByEmail blanks purchaser fields on purchases made by
	// the given email across the shop, covering gifts the customer bought off
	// other customers' registries.
	AnonymizePurchasesByEmail(ctx context.Context, shopDomain, email string) (int64, error)

	// DeleteByShop removes every row belonging to a shop. Idempotent.
	DeleteByShop(ctx context.Context, shopDomain string) (*RedactionResult, error)
}
