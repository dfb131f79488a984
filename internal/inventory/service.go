// Package inventory implements the pharmacy-facing side of the catalog:
// creating, updating and withdrawing the products a pharmacy offers.
package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmakit/storefront/internal/catalog/store"
	"github.com/pharmakit/storefront/pkg/messaging"
	"github.com/pharmakit/storefront/pkg/messaging/events"
)

// InventoryService defines the write operations a pharmacy performs on
// its own product range. Every write is scoped to the calling pharmacy;
// a product owned by another pharmacy is treated as not found.
type InventoryService interface {
	// CreateProduct adds a product to the pharmacy's range.
	CreateProduct(ctx context.Context, pharmacyID uuid.UUID, dto CreateProductDto) (*ProductDto, error)

	// UpdateProduct replaces a product's attributes.
	// Returns ErrProductNotFound on unknown ID, foreign ownership or
	// version conflict.
	UpdateProduct(ctx context.Context, pharmacyID uuid.UUID, dto UpdateProductDto) (*ProductDto, error)

	// UpdateStock sets the stock quantity of a product.
	// Returns ErrProductNotFound on unknown ID, foreign ownership or
	// version conflict.
	UpdateStock(ctx context.Context, pharmacyID uuid.UUID, dto UpdateStockDto) (*ProductDto, error)

	// DeleteProduct withdraws a product from the range.
	// Returns ErrProductNotFound on unknown ID, foreign ownership or
	// version conflict.
	DeleteProduct(ctx context.Context, pharmacyID, id uuid.UUID, version int32) error
}

// Service implements InventoryService over the catalog store. Stock
// changes are announced on the broker so other storefront instances can
// refresh their availability.
type Service struct {
	repository store.CatalogStore
	publisher  messaging.Publisher
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewService creates a new inventory service. publisher may be nil when
// no broker is configured; stock events are then skipped.
func NewService(repo store.CatalogStore, publisher messaging.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repository: repo,
		publisher:  publisher,
		validate:   validator.New(),
		logger:     logger.With("component", "inventory"),
	}
}

// CreateProductDto carries the attributes of a new product.
type CreateProductDto struct {
	Name       string          `json:"name" validate:"required"`
	Price      decimal.Decimal `json:"price" validate:"required"`
	Stock      int32           `json:"stock" validate:"gte=0"`
	CategoryID string          `json:"category_id" validate:"required,uuid"`
	Image      string          `json:"image"`
}

// UpdateProductDto identifies and replaces a product's attributes.
// Version must match the currently stored version.
type UpdateProductDto struct {
	ID         string          `json:"id" validate:"required,uuid"`
	Name       string          `json:"name" validate:"required"`
	Price      decimal.Decimal `json:"price" validate:"required"`
	Stock      int32           `json:"stock" validate:"gte=0"`
	CategoryID string          `json:"category_id" validate:"required,uuid"`
	Image      string          `json:"image"`
	Version    int32           `json:"version" validate:"gte=1"`
}

// UpdateStockDto sets the stock quantity of a product.
type UpdateStockDto struct {
	ID      string `json:"id" validate:"required,uuid"`
	Stock   int32  `json:"stock" validate:"gte=0"`
	Version int32  `json:"version" validate:"gte=1"`
}

// ProductDto is the inventory view of a product.
type ProductDto struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int32           `json:"stock"`
	CategoryID string          `json:"category_id"`
	PharmacyID string          `json:"pharmacy_id,omitempty"`
	Image      string          `json:"image,omitempty"`
	Version    int32           `json:"version"`
}

// CreateProduct adds a product to the pharmacy's range.
func (s *Service) CreateProduct(ctx context.Context, pharmacyID uuid.UUID, dto CreateProductDto) (*ProductDto, error) {
	if err := s.validate.Struct(dto); err != nil {
		return nil, fmt.Errorf("invalid product data: %w", err)
	}
	categoryID, err := uuid.Parse(dto.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("invalid category ID: %w", err)
	}
	product, err := s.repository.CreateProduct(ctx, store.CreateProductParams{
		Name:       dto.Name,
		PriceCents: toCents(dto.Price),
		Stock:      dto.Stock,
		CategoryID: categoryID,
		PharmacyID: uuid.NullUUID{UUID: pharmacyID, Valid: true},
		ImageURL:   dto.Image,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.publishStockChanged(ctx, product)
	result := toDto(product)
	return &result, nil
}

// UpdateProduct replaces a product's attributes under optimistic
// locking, scoped to the calling pharmacy's range.
func (s *Service) UpdateProduct(ctx context.Context, pharmacyID uuid.UUID, dto UpdateProductDto) (*ProductDto, error) {
	if err := s.validate.Struct(dto); err != nil {
		return nil, fmt.Errorf("invalid product data: %w", err)
	}
	id, err := uuid.Parse(dto.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid product ID: %w", err)
	}
	categoryID, err := uuid.Parse(dto.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("invalid category ID: %w", err)
	}
	product, err := s.repository.UpdateProduct(ctx, store.UpdateProductParams{
		ID:         id,
		PharmacyID: pharmacyID,
		Name:       dto.Name,
		PriceCents: toCents(dto.Price),
		Stock:      dto.Stock,
		CategoryID: categoryID,
		ImageURL:   dto.Image,
		Version:    dto.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}
	s.publishStockChanged(ctx, product)
	result := toDto(product)
	return &result, nil
}

// UpdateStock sets the stock quantity of a product under optimistic
// locking, scoped to the calling pharmacy's range.
func (s *Service) UpdateStock(ctx context.Context, pharmacyID uuid.UUID, dto UpdateStockDto) (*ProductDto, error) {
	if err := s.validate.Struct(dto); err != nil {
		return nil, fmt.Errorf("invalid stock data: %w", err)
	}
	id, err := uuid.Parse(dto.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid product ID: %w", err)
	}
	product, err := s.repository.UpdateStock(ctx, id, pharmacyID, dto.Stock, dto.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to update stock for product %s: %w", id, err)
	}
	s.publishStockChanged(ctx, product)
	result := toDto(product)
	return &result, nil
}

// DeleteProduct withdraws a product from the calling pharmacy's range
// under optimistic locking.
func (s *Service) DeleteProduct(ctx context.Context, pharmacyID, id uuid.UUID, version int32) error {
	if err := s.repository.DeleteProduct(ctx, id, pharmacyID, version); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

// publishStockChanged announces the new stock level. Best effort: a
// publish failure is logged and never fails the write that caused it.
func (s *Service) publishStockChanged(ctx context.Context, product *store.Product) {
	if s.publisher == nil {
		return
	}
	event := events.StockChangedEvent{
		ProductID:  product.ID,
		PharmacyID: product.PharmacyID.UUID,
		Stock:      product.StockQuantity,
		ChangedAt:  time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish stock change event", "product_id", product.ID, "error", err)
	}
}

func toDto(p *store.Product) ProductDto {
	dto := ProductDto{
		ID:         p.ID.String(),
		Name:       p.Name,
		Price:      decimal.New(p.PriceCents, -2),
		Stock:      p.StockQuantity,
		CategoryID: p.CategoryID.String(),
		Image:      p.ImageURL,
		Version:    p.Version,
	}
	if p.PharmacyID.Valid {
		dto.PharmacyID = p.PharmacyID.UUID.String()
	}
	return dto
}

// toCents converts a decimal price to integer cents for storage.
func toCents(price decimal.Decimal) int64 {
	return price.Shift(2).Round(0).IntPart()
}
