package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	caterrors "github.com/pharmakit/storefront/internal/catalog/errors"
)

// PgStore implements CatalogStore using PostgreSQL as the data store.
type PgStore struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewPgStore creates a new instance of CatalogStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool, logger *slog.Logger) *PgStore {
	return &PgStore{
		db:     dbp,
		logger: logger.With("component", "catalog_store"),
	}
}

const productColumns = "id, name, price_cents, stock_quantity, category_id, pharmacy_id, image_url, version"

// ListCategories returns all categories in display order.
func (p *PgStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := p.db.Query(ctx, "SELECT id, name, image_url FROM categories ORDER BY sort_order, name")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		if err := validateCategory(c); err != nil {
			p.logger.WarnContext(ctx, "Quarantined malformed category record", "error", err)
			continue
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read category rows: %w", err)
	}
	return categories, nil
}

// FindProductByID retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) FindProductByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	row := p.db.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, caterrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	if err := validateProduct(*product); err != nil {
		// A malformed record must not reach the cart or the UI.
		p.logger.WarnContext(ctx, "Quarantined malformed product record", "error", err)
		return nil, caterrors.ErrProductNotFound
	}
	return product, nil
}

// FindProductsByCategory returns all products in the given category.
func (p *PgStore) FindProductsByCategory(ctx context.Context, categoryID uuid.UUID) ([]Product, error) {
	return p.queryProducts(ctx, "SELECT "+productColumns+" FROM products WHERE category_id = $1 ORDER BY name", categoryID)
}

// FindProductsByPharmacy returns all products offered by the given pharmacy.
func (p *PgStore) FindProductsByPharmacy(ctx context.Context, pharmacyID uuid.UUID) ([]Product, error) {
	return p.queryProducts(ctx, "SELECT "+productColumns+" FROM products WHERE pharmacy_id = $1 ORDER BY name", pharmacyID)
}

// CreateProduct adds a new product to the catalog.
func (p *PgStore) CreateProduct(ctx context.Context, params CreateProductParams) (*Product, error) {
	row := p.db.QueryRow(ctx,
		`INSERT INTO products (name, price_cents, stock_quantity, category_id, pharmacy_id, image_url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+productColumns,
		params.Name, params.PriceCents, params.Stock, params.CategoryID, params.PharmacyID, params.ImageURL)
	product, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// UpdateProduct modifies an existing product's details. The write is
// scoped to the owning pharmacy, so a mismatched pharmacy behaves like
// a version conflict.
// Returns ErrProductNotFound if no product matches ID, pharmacy and version.
func (p *PgStore) UpdateProduct(ctx context.Context, params UpdateProductParams) (*Product, error) {
	row := p.db.QueryRow(ctx,
		`UPDATE products
		 SET name = $2, price_cents = $3, stock_quantity = $4, category_id = $5, image_url = $6, version = version + 1
		 WHERE id = $1 AND pharmacy_id = $7 AND version = $8
		 RETURNING `+productColumns,
		params.ID, params.Name, params.PriceCents, params.Stock, params.CategoryID, params.ImageURL, params.PharmacyID, params.Version)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, caterrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// UpdateStock adjusts the stock quantity of a product within the owning
// pharmacy's range.
// Returns ErrProductNotFound if no product matches ID, pharmacy and version.
func (p *PgStore) UpdateStock(ctx context.Context, id, pharmacyID uuid.UUID, stock int32, version int32) (*Product, error) {
	row := p.db.QueryRow(ctx,
		`UPDATE products
		 SET stock_quantity = $2, version = version + 1
		 WHERE id = $1 AND pharmacy_id = $3 AND version = $4
		 RETURNING `+productColumns,
		id, stock, pharmacyID, version)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, caterrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product stock: %w", err)
	}
	return product, nil
}

// DeleteProduct removes a product from the owning pharmacy's range.
// Returns ErrProductNotFound if no product matches ID, pharmacy and version.
func (p *PgStore) DeleteProduct(ctx context.Context, id, pharmacyID uuid.UUID, version int32) error {
	tag, err := p.db.Exec(ctx, "DELETE FROM products WHERE id = $1 AND pharmacy_id = $2 AND version = $3", id, pharmacyID, version)
	if err != nil {
		return fmt.Errorf("failed to delete product by ID: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return caterrors.ErrProductNotFound
	}
	return nil
}

func (p *PgStore) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		if err := validateProduct(*product); err != nil {
			p.logger.WarnContext(ctx, "Quarantined malformed product record", "error", err)
			continue
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read product rows: %w", err)
	}
	return products, nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.PriceCents, &p.StockQuantity, &p.CategoryID, &p.PharmacyID, &p.ImageURL, &p.Version)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
