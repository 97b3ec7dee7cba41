// Package usecase implements registry business logic.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/wishcraft/gatekeeper/internal/errors"
	registryDomain "github.com/wishcraft/gatekeeper/internal/registry/domain"
)

// RegistryUsecase implements gift registry operations for authenticated
// customers. Every operation is scoped to the caller's shop and customer ID;
// a registry owned by someone else reads as not found.
type RegistryUsecase struct {
	repository registryDomain.Repository
	logger     *slog.Logger
}

// NewRegistryUsecase creates a new registry usecase.
func NewRegistryUsecase(repository registryDomain.Repository, logger *slog.Logger) *RegistryUsecase {
	return &RegistryUsecase{repository: repository, logger: logger}
}

// Create creates a registry for the given customer.
func (u *RegistryUsecase) Create(
	ctx context.Context,
	shopDomain, customerID, customerEmail, title string,
	eventDate *time.Time,
) (*registryDomain.Registry, error) {
	registry := registryDomain.NewRegistry(shopDomain, customerID, customerEmail, title, eventDate)

	if err := u.repository.Create(ctx, registry); err != nil {
		return nil, err
	}

	u.logger.Info("registry created",
		slog.String("registry_id", registry.ID.String()),
		slog.String("shop_domain", shopDomain),
	)

	return registry, nil
}

// Get retrieves a registry owned by the given customer.
func (u *RegistryUsecase) Get(
	ctx context.Context,
	id uuid.UUID,
	shopDomain, customerID string,
) (*registryDomain.Registry, error) {
	registry, err := u.repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Ownership mismatch is reported as not found so callers cannot probe
	// for registries in other shops.
	if registry.ShopDomain != shopDomain || registry.CustomerID != customerID {
		return nil, apperrors.ErrNotFound
	}

	return registry, nil
}

// List lists the customer's registries, newest first.
func (u *RegistryUsecase) List(
	ctx context.Context,
	shopDomain, customerID string,
) ([]*registryDomain.Registry, error) {
	return u.repository.ListByCustomer(ctx, shopDomain, customerID)
}
