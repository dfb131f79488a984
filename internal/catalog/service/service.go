// Package service provides the implementation of catalog browsing logic.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pharmakit/storefront/internal/catalog/store"
	"github.com/shopspring/decimal"
)

// CatalogService defines the methods for browsing the medicine catalog.
// It abstracts the underlying business logic and data access.
type CatalogService interface {
	// ListCategories returns all categories in display order.
	// Returns an empty slice if no categories exist.
	ListCategories(ctx context.Context) ([]CategoryDto, error)

	// ProductsForCategory returns the products of a category.
	// Returns an empty slice for an unknown category; never an error for that case.
	ProductsForCategory(ctx context.Context, categoryID uuid.UUID) ([]ProductDto, error)

	// ProductsForPharmacy returns the products offered by a pharmacy.
	// Returns an empty slice for an unknown pharmacy.
	ProductsForPharmacy(ctx context.Context, pharmacyID uuid.UUID) ([]ProductDto, error)

	// FindProduct retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindProduct(ctx context.Context, id uuid.UUID) (*ProductDto, error)
}

// Service implements CatalogService over a CatalogStore.
type Service struct {
	repository store.CatalogStore
}

// NewService creates a new instance of CatalogService with the provided repository.
func NewService(repo store.CatalogStore) *Service {
	return &Service{
		repository: repo,
	}
}

// CategoryDto represents the data transfer object for a category.
type CategoryDto struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// ProductDto represents the data transfer object for a product.
// Version is read-only and used for optimistic concurrency control.
type ProductDto struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Available  int32           `json:"available"`
	CategoryID string          `json:"category_id"`
	PharmacyID string          `json:"pharmacy_id,omitempty"`
	Image      string          `json:"image,omitempty"`
	Version    int32           `json:"version"`
}

// ListCategories retrieves all categories as CategoryDtos.
func (s *Service) ListCategories(ctx context.Context) ([]CategoryDto, error) {
	categories, err := s.repository.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	dtos := make([]CategoryDto, len(categories))
	for i, c := range categories {
		dtos[i] = CategoryDto{ID: c.ID.String(), Name: c.Name, Image: c.ImageURL}
	}
	return dtos, nil
}

// ProductsForCategory retrieves the products of a category as ProductDtos.
func (s *Service) ProductsForCategory(ctx context.Context, categoryID uuid.UUID) ([]ProductDto, error) {
	products, err := s.repository.FindProductsByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products for category %s: %w", categoryID, err)
	}
	return toDtos(products), nil
}

// ProductsForPharmacy retrieves the products of a pharmacy as ProductDtos.
func (s *Service) ProductsForPharmacy(ctx context.Context, pharmacyID uuid.UUID) ([]ProductDto, error) {
	products, err := s.repository.FindProductsByPharmacy(ctx, pharmacyID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products for pharmacy %s: %w", pharmacyID, err)
	}
	return toDtos(products), nil
}

// FindProduct retrieves a product by its ID and returns it as a ProductDto.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) FindProduct(ctx context.Context, id uuid.UUID) (*ProductDto, error) {
	product, err := s.repository.FindProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}
	dto := toDto(product)
	return &dto, nil
}

// Search filters products by a case-insensitive substring match on the
// name. An empty query returns the input unchanged. Pure function: the
// input slice is never mutated, so the operation is idempotent.
func Search(products []ProductDto, query string) []ProductDto {
	if query == "" {
		return products
	}
	needle := strings.ToLower(query)
	matched := make([]ProductDto, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			matched = append(matched, p)
		}
	}
	return matched
}

func toDto(p *store.Product) ProductDto {
	dto := ProductDto{
		ID:         p.ID.String(),
		Name:       p.Name,
		Price:      decimal.New(p.PriceCents, -2),
		Available:  p.StockQuantity,
		CategoryID: p.CategoryID.String(),
		Image:      p.ImageURL,
		Version:    p.Version,
	}
	if p.PharmacyID.Valid {
		dto.PharmacyID = p.PharmacyID.UUID.String()
	}
	return dto
}

func toDtos(products []store.Product) []ProductDto {
	dtos := make([]ProductDto, len(products))
	for i := range products {
		dtos[i] = toDto(&products[i])
	}
	return dtos
}
