// Package repository implements registry persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/wishcraft/gatekeeper/internal/database"
	apperrors "github.com/wishcraft/gatekeeper/internal/errors"
	registryDomain "github.com/wishcraft/gatekeeper/internal/registry/domain"
)

// PostgreSQLRegistryRepository implements registry persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLRegistryRepository struct {
	db *sql.DB
}

// NewPostgreSQLRegistryRepository creates a new PostgreSQL registry repository.
func NewPostgreSQLRegistryRepository(db *sql.DB) *PostgreSQLRegistryRepository {
	return &PostgreSQLRegistryRepository{db: db}
}

// Create inserts a new registry.
func (p *PostgreSQLRegistryRepository) Create(ctx context.Context, registry *registryDomain.Registry) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO registries (id, shop_domain, customer_id, customer_email, title, event_date, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := querier.ExecContext(
		ctx,
		query,
		registry.ID,
		registry.ShopDomain,
		registry.CustomerID,
		registry.CustomerEmail,
		registry.Title,
		registry.EventDate,
		registry.CreatedAt,
		registry.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create registry")
	}

	return nil
}

// GetByID retrieves a registry by ID. Returns ErrNotFound when absent.
func (p *PostgreSQLRegistryRepository) GetByID(ctx context.Context, id uuid.UUID) (*registryDomain.Registry, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, shop_domain, customer_id, customer_email, title, event_date, created_at, updated_at
			  FROM registries
			  WHERE id = $1`

	var registry registryDomain.Registry
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&registry.ID,
		&registry.ShopDomain,
		&registry.CustomerID,
		&registry.CustomerEmail,
		&registry.Title,
		&registry.EventDate,
		&registry.CreatedAt,
		&registry.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get registry")
	}

	return &registry, nil
}

// ListByCustomer lists a customer's registries in a shop, newest first.
func (p *PostgreSQLRegistryRepository) ListByCustomer(
	ctx context.Context,
	shopDomain, customerID string,
) ([]*registryDomain.Registry, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, shop_domain, customer_id, customer_email, title, event_date, created_at, updated_at
			  FROM registries
			  WHERE shop_domain = $1 AND customer_id = $2
			  ORDER BY id DESC`

	rows, err := querier.QueryContext(ctx, query, shopDomain, customerID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list registries")
	}
	defer func() {
		_ = rows.Close()
	}()

	registries := make([]*registryDomain.Registry, 0)
	for rows.Next() {
		var registry registryDomain.Registry
		err := rows.Scan(
			&registry.ID,
			&registry.ShopDomain,
			&registry.CustomerID,
			&registry.CustomerEmail,
			&registry.Title,
			&registry.EventDate,
			&registry.CreatedAt,
			&registry.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan registry")
		}
		registries = append(registries, &registry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate registries")
	}

	return registries, nil
}

// ExportByCustomer collects every row stored about one customer: their
// registries, the items on them, and the purchases made against those items.
func (p *PostgreSQLRegistryRepository) ExportByCustomer(
	ctx context.Context,
	shopDomain, customerID string,
) (*registryDomain.CustomerExport, error) {
	registries, err := p.ListByCustomer(ctx, shopDomain, customerID)
	if err != nil {
		return nil, err
	}

	export := &registryDomain.CustomerExport{
		ShopDomain: shopDomain,
		CustomerID: customerID,
		Registries: make([]registryDomain.Registry, 0, len(registries)),
		Items:      make([]registryDomain.Item, 0),
		Purchases:  make([]registryDomain.Purchase, 0),
	}
	for _, registry := range registries {
		export.Registries = append(export.Registries, *registry)
	}

	querier := database.GetTx(ctx, p.db)

	itemsQuery := `SELECT i.id, i.registry_id, i.product_id, i.variant_id, i.quantity, i.created_at
				   FROM registry_items i
				   JOIN registries r ON i.registry_id = r.id
				   WHERE r.shop_domain = $1 AND r.customer_id = $2
				   ORDER BY i.id`

	rows, err := querier.QueryContext(ctx, itemsQuery, shopDomain, customerID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to export registry items")
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var item registryDomain.Item
		err := rows.Scan(&item.ID, &item.RegistryID, &item.ProductID, &item.VariantID, &item.Quantity, &item.CreatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan registry item")
		}
		export.Items = append(export.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate registry items")
	}

	purchasesQuery := `SELECT p.id, p.item_id, p.purchaser_email, p.purchaser_name, p.quantity, p.created_at
					   FROM purchases p
					   JOIN registry_items i ON p.item_id = i.id
					   JOIN registries r ON i.registry_id = r.id
					   WHERE r.shop_domain = $1 AND r.customer_id = $2
					   ORDER BY p.id`

	purchaseRows, err := querier.QueryContext(ctx, purchasesQuery, shopDomain, customerID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to export purchases")
	}
	defer func() {
		_ = purchaseRows.Close()
	}()

	for purchaseRows.Next() {
		var purchase registryDomain.Purchase
		err := purchaseRows.Scan(
			&purchase.ID,
			&purchase.ItemID,
			&purchase.PurchaserEmail,
			&purchase.PurchaserName,
			&purchase.Quantity,
			&purchase.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan purchase")
		}
		export.Purchases = append(export.Purchases, purchase)
	}
	if err := purchaseRows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate purchases")
	}

	return export, nil
}

// DeleteByCustomer removes a customer's registries with their items and
// purchases, children first to honor foreign keys. Safe to run repeatedly;
// an unknown customer deletes zero rows.
func (p *PostgreSQLRegistryRepository) DeleteByCustomer(
	ctx context.Context,
	shopDomain, customerID string,
) (*registryDomain.RedactionResult, error) {
	querier := database.GetTx(ctx, p.db)
	result := &registryDomain.RedactionResult{}

	purchasesQuery := `DELETE FROM purchases
					   WHERE item_id IN (
						   SELECT i.id FROM registry_items i
						   JOIN registries r ON i.registry_id = r.id
						   WHERE r.shop_domain = $1 AND r.customer_id = $2
					   )`

	res, err := querier.ExecContext(ctx, purchasesQuery, shopDomain, customerID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to delete purchases")
	}
	result.PurchasesDeleted, _ = res.RowsAffected()

	itemsQuery := `DELETE FROM registry_items
				   WHERE registry_id IN (
					   SELECT id FROM registries
					   WHERE shop_domain = $1 AND customer_id = $2
				   )`

	res, err = querier.ExecContext(ctx, itemsQuery, shopDomain, customerID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to delete registry items")
	}
	result.ItemsDeleted, _ = res.RowsAffected()

	registriesQuery := `DELETE FROM registries WHERE shop_domain = $1 AND customer_id = $2`

	res, err = querier.ExecContext(ctx, registriesQuery, shopDomain, customerID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to delete registries")
	}
	result.RegistriesDeleted, _ = res.RowsAffected()

	return result, nil
}

// AnonymizePurchasesByEmail blanks purchaser fields on purchases the given
// email made anywhere in the shop.
func (p *PostgreSQLRegistryRepository) AnonymizePurchasesByEmail(
	ctx context.Context,
	shopDomain, email string,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE purchases SET purchaser_email = '', purchaser_name = ''
			  WHERE purchaser_email = $2 AND item_id IN (
				  SELECT i.id FROM registry_items i
				  JOIN registries r ON i.registry_id = r.id
				  WHERE r.shop_domain = $1
			  )`

	res, err := querier.ExecContext(ctx, query, shopDomain, email)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to anonymize purchases")
	}

	affected, _ := res.RowsAffected()
	return affected, nil
}

// DeleteByShop removes every row belonging to a shop, children first.
func (p *PostgreSQLRegistryRepository) DeleteByShop(
	ctx context.Context,
	shopDomain string,
) (*registryDomain.RedactionResult, error) {
	querier := database.GetTx(ctx, p.db)
	result := &registryDomain.RedactionResult{}

	purchasesQuery := `DELETE FROM purchases
					   WHERE item_id IN (
						   SELECT i.id FROM registry_items i
						   JOIN registries r ON i.registry_id = r.id
						   WHERE r.shop_domain = $1
					   )`

	res, err := querier.ExecContext(ctx, purchasesQuery, shopDomain)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to delete purchases")
	}
	result.PurchasesDeleted, _ = res.RowsAffected()

	itemsQuery := `DELETE FROM registry_items
				   WHERE registry_id IN (SELECT id FROM registries WHERE shop_domain = $1)`

	res, err = querier.ExecContext(ctx, itemsQuery, shopDomain)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to delete registry items")
	}
	result.ItemsDeleted, _ = res.RowsAffected()

	registriesQuery := `DELETE FROM registries WHERE shop_domain = $1`

	res, err = querier.ExecContext(ctx, registriesQuery, shopDomain)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to delete registries")
	}
	result.RegistriesDeleted, _ = res.RowsAffected()

	return result, nil
}
