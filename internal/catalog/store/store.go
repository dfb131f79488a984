// Package store provides an interface for catalog storage operations.
package store

import (
	"context"

	"github.com/google/uuid"
)

// Category is static reference data for catalog browsing.
type Category struct {
	ID       uuid.UUID
	Name     string
	ImageURL string
}

// Product is a catalog entity. Price is kept in cents; conversion to a
// decimal amount happens at the ingestion boundary of the service layer.
// Version is used for optimistic concurrency control on inventory writes.
type Product struct {
	ID            uuid.UUID
	Name          string
	PriceCents    int64
	StockQuantity int32
	CategoryID    uuid.UUID
	PharmacyID    uuid.NullUUID
	ImageURL      string
	Version       int32
}

// CreateProductParams are the attributes of a new product.
type CreateProductParams struct {
	Name       string
	PriceCents int64
	Stock      int32
	CategoryID uuid.UUID
	PharmacyID uuid.NullUUID
	ImageURL   string
}

// UpdateProductParams identify and replace an existing product's attributes.
// PharmacyID scopes the write to the owning pharmacy's range.
type UpdateProductParams struct {
	ID         uuid.UUID
	PharmacyID uuid.UUID
	Name       string
	PriceCents int64
	Stock      int32
	CategoryID uuid.UUID
	ImageURL   string
	Version    int32
}

// CatalogStore is an interface for catalog storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type CatalogStore interface {
	// ListCategories returns all categories in display order.
	// Returns an empty slice if no categories exist.
	ListCategories(ctx context.Context) ([]Category, error)

	// FindProductByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindProductByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindProductsByCategory returns all products in the given category.
	// Returns an empty slice for an unknown category.
	FindProductsByCategory(ctx context.Context, categoryID uuid.UUID) ([]Product, error)

	// FindProductsByPharmacy returns all products offered by the given pharmacy.
	// Returns an empty slice for an unknown pharmacy.
	FindProductsByPharmacy(ctx context.Context, pharmacyID uuid.UUID) ([]Product, error)

	// CreateProduct adds a new product to the catalog.
	CreateProduct(ctx context.Context, params CreateProductParams) (*Product, error)

	// UpdateProduct modifies an existing product's details.
	// Returns ErrProductNotFound if no product matches the given ID,
	// owning pharmacy and version.
	UpdateProduct(ctx context.Context, params UpdateProductParams) (*Product, error)

	// UpdateStock adjusts the stock quantity of a product.
	// Returns ErrProductNotFound if no product matches the given ID,
	// owning pharmacy and version.
	UpdateStock(ctx context.Context, id, pharmacyID uuid.UUID, stock int32, version int32) (*Product, error)

	// DeleteProduct removes a product by its ID.
	// Returns ErrProductNotFound if no product matches the given ID,
	// owning pharmacy and version.
	DeleteProduct(ctx context.Context, id, pharmacyID uuid.UUID, version int32) error
}
