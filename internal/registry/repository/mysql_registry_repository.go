package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/wishcraft/gatekeeper/internal/database"
	apperrors "github.com/wishcraft/gatekeeper/internal/errors"
	registryDomain "github.com/wishcraft/gatekeeper/internal/registry/domain"
)

// MySQLRegistryRepository implements registry persistence for MySQL.
// UUIDs are stored as CHAR(36); MySQL cannot delete from a table referenced in
// a subquery on the same table, so cascading deletes use multi-table DELETE
// JOIN syntax instead.
type MySQLRegistryRepository struct {
	db *sql.DB
}

// NewMySQLRegistryRepository creates a new MySQL registry repository.
func NewMySQLRegistryRepository(db *sql.DB) *MySQLRegistryRepository {
	return &MySQLRegistryRepository{db: db}
}

// Create inserts a new registry.
func (m *MySQLRegistryRepository) Create(ctx context.Context, registry *registryDomain.Registry) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO registries (id, shop_domain, customer_id, customer_email, title, event_date, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		registry.ID.String(),
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
func (m *MySQLRegistryRepository) GetByID(ctx context.Context, id uuid.UUID) (*registryDomain.Registry, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, shop_domain, customer_id, customer_email, title, event_date, created_at, updated_at
			  FROM registries
			  WHERE id = ?`

	var registry registryDomain.Registry
	var idStr string
	err := querier.QueryRowContext(ctx, query, id.String()).Scan(
		&idStr,
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

	registry.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse registry id")
	}

	return &registry, nil
}

// ListByCustomer lists a customer's registries in a shop, newest first.
func (m *MySQLRegistryRepository) ListByCustomer(
	ctx context.Context,
	shopDomain, customerID string,
) ([]*registryDomain.Registry, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, shop_domain, customer_id, customer_email, title, event_date, created_at, updated_at
			  FROM registries
			  WHERE shop_domain = ? AND customer_id = ?
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
		var idStr string
		err := rows.Scan(
			&idStr,
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
		registry.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse registry id")
		}
		registries = append(registries, &registry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate registries")
	}

	return registries, nil
}

// ExportByCustomer collects every row stored about one customer.
func (m *MySQLRegistryRepository) ExportByCustomer(
	ctx context.Context,
	shopDomain, customerID string,
) (*registryDomain.CustomerExport, error) {
	registries, err := m.ListByCustomer(ctx, shopDomain, customerID)
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

	querier := database.GetTx(ctx, m.db)

	itemsQuery := `SELECT i.id, i.registry_id, i.product_id, i.variant_id, i.quantity, i.created_at
				   FROM registry_items i
				   JOIN registries r ON i.registry_id = r.id
				   WHERE r.shop_domain = ? AND r.customer_id = ?
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
		var idStr, registryIDStr string
		err := rows.Scan(&idStr, &registryIDStr, &item.ProductID, &item.VariantID, &item.Quantity, &item.CreatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan registry item")
		}
		if item.ID, err = uuid.Parse(idStr); err != nil {
			return nil, apperrors.Wrap(err, "failed to parse item id")
		}
		if item.RegistryID, err = uuid.Parse(registryIDStr); err != nil {
			return nil, apperrors.Wrap(err, "failed to parse item registry id")
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
					   WHERE r.shop_domain = ? AND r.customer_id = ?
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
		var idStr, itemIDStr string
		err := purchaseRows.Scan(
			&idStr,
			&itemIDStr,
			&purchase.PurchaserEmail,
			&purchase.PurchaserName,
			&purchase.Quantity,
			&purchase.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan purchase")
		}
		if purchase.ID, err = uuid.Parse(idStr); err != nil {
			return nil, apperrors.Wrap(err, "failed to parse purchase id")
		}
		if purchase.ItemID, err = uuid.Parse(itemIDStr); err != nil {
			return nil, apperrors.Wrap(err, "failed to parse purchase item id")
		}
		export.Purchases = append(export.Purchases, purchase)
	}
	if err := purchaseRows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate purchases")
	}

	return export, nil
}

// DeleteByCustomer removes a customer's registries with their items and
// purchases, children first. Safe to run repeatedly.
func (m *MySQLRegistryRepository) DeleteByCustomer(
	ctx context.Context,
	shopDomain, customerID string,
) (*registryDomain.RedactionResult, error) {
	querier := database.GetTx(ctx, m.db)
	result := &registryDomain.RedactionResult{}

	purchasesQuery := `DELETE p FROM purchases p
					   JOIN registry_items i ON p.item_id = i.id
					   JOIN registries r ON i.registry_id = r.id
					   WHERE r.shop_domain = ? AND r.customer_id = ?`

	res, err := querier.ExecContext(ctx, purchasesQuery, shopDomain, customerID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to delete purchases")
	}
	result.PurchasesDeleted, _ = res.RowsAffected()

	itemsQuery := `DELETE i FROM registry_items i
				   JOIN registries r ON i.registry_id = r.id
				   WHERE r.shop_domain = ? AND r.customer_id = ?`

	res, err = querier.ExecContext(ctx, itemsQuery, shopDomain, customerID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to delete registry items")
	}
	result.ItemsDeleted, _ = res.RowsAffected()

	registriesQuery := `DELETE FROM registries WHERE shop_domain = ? AND customer_id = ?`

	res, err = querier.ExecContext(ctx, registriesQuery, shopDomain, customerID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to delete registries")
	}
	result.RegistriesDeleted, _ = res.RowsAffected()

	return result, nil
}

// AnonymizePurchasesByEmail blanks purchaser fields on purchases the given
// email made anywhere in the shop.
func (m *MySQLRegistryRepository) AnonymizePurchasesByEmail(
	ctx context.Context,
	shopDomain, email string,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE purchases p
			  JOIN registry_items i ON p.item_id = i.id
			  JOIN registries r ON i.registry_id = r.id
			  SET p.purchaser_email = '', p.purchaser_name = ''
			  WHERE r.shop_domain = ? AND p.purchaser_email = ?`

	res, err := querier.ExecContext(ctx, query, shopDomain, email)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to anonymize purchases")
	}

	affected, _ := res.RowsAffected()
	return affected, nil
}

// DeleteByShop removes every row belonging to a shop, children first.
func (m *MySQLRegistryRepository) DeleteByShop(
	ctx context.Context,
	shopDomain string,
) (*registryDomain.RedactionResult, error) {
	querier := database.GetTx(ctx, m.db)
	result := &registryDomain.RedactionResult{}

	purchasesQuery := `DELETE p FROM purchases p
					   JOIN registry_items i ON p.item_id = i.id
					   JOIN registries r ON i.registry_id = r.id
					   WHERE r.shop_domain = ?`

	res, err := querier.ExecContext(ctx, purchasesQuery, shopDomain)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to delete purchases")
	}
	result.PurchasesDeleted, _ = res.RowsAffected()

	itemsQuery := `DELETE i FROM registry_items i
				   JOIN registries r ON i.registry_id = r.id
				   WHERE r.shop_domain = ?`

	res, err = querier.ExecContext(ctx, itemsQuery, shopDomain)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to delete registry items")
	}
	result.ItemsDeleted, _ = res.RowsAffected()

	registriesQuery := `DELETE FROM registries WHERE shop_domain = ?`

	res, err = querier.ExecContext(ctx, registriesQuery, shopDomain)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to delete registries")
	}
	result.RegistriesDeleted, _ = res.RowsAffected()

	return result, nil
}
