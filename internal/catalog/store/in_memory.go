package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	caterrors "github.com/pharmakit/storefront/internal/catalog/errors"
)

// inMemory implements CatalogStore using in-memory maps. It backs tests
// and local development without a database.
type inMemory struct {
	mu         sync.RWMutex
	categories []Category
	products   map[uuid.UUID]Product
}

// NewInMemoryStore creates a CatalogStore seeded with the given categories.
func NewInMemoryStore(categories []Category) CatalogStore {
	return &inMemory{
		categories: categories,
		products:   make(map[uuid.UUID]Product),
	}
}

func (s *inMemory) ListCategories(_ context.Context) ([]Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Category, len(s.categories))
	copy(list, s.categories)
	return list, nil
}

func (s *inMemory) FindProductByID(_ context.Context, id uuid.UUID) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, caterrors.ErrProductNotFound
	}
	return &p, nil
}

func (s *inMemory) FindProductsByCategory(_ context.Context, categoryID uuid.UUID) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(p Product) bool { return p.CategoryID == categoryID }), nil
}

func (s *inMemory) FindProductsByPharmacy(_ context.Context, pharmacyID uuid.UUID) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(p Product) bool { return p.PharmacyID.Valid && p.PharmacyID.UUID == pharmacyID }), nil
}

func (s *inMemory) CreateProduct(_ context.Context, params CreateProductParams) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product := Product{
		ID:            uuid.New(),
		Name:          params.Name,
		PriceCents:    params.PriceCents,
		StockQuantity: params.Stock,
		CategoryID:    params.CategoryID,
		PharmacyID:    params.PharmacyID,
		ImageURL:      params.ImageURL,
		Version:       1,
	}
	s.products[product.ID] = product
	return &product, nil
}

func (s *inMemory) UpdateProduct(_ context.Context, params UpdateProductParams) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[params.ID]
	if !ok || !ownedBy(p, params.PharmacyID) || p.Version != params.Version {
		return nil, caterrors.ErrProductNotFound
	}
	p.Name = params.Name
	p.PriceCents = params.PriceCents
	p.StockQuantity = params.Stock
	p.CategoryID = params.CategoryID
	p.ImageURL = params.ImageURL
	p.Version++
	s.products[params.ID] = p
	return &p, nil
}

func (s *inMemory) UpdateStock(_ context.Context, id, pharmacyID uuid.UUID, stock int32, version int32) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok || !ownedBy(p, pharmacyID) || p.Version != version {
		return nil, caterrors.ErrProductNotFound
	}
	p.StockQuantity = stock
	p.Version++
	s.products[id] = p
	return &p, nil
}

func (s *inMemory) DeleteProduct(_ context.Context, id, pharmacyID uuid.UUID, version int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok || !ownedBy(p, pharmacyID) || p.Version != version {
		return caterrors.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

func ownedBy(p Product, pharmacyID uuid.UUID) bool {
	return p.PharmacyID.Valid && p.PharmacyID.UUID == pharmacyID
}

// filter returns products matching the predicate, sorted by name.
// Callers must hold at least a read lock.
func (s *inMemory) filter(keep func(Product) bool) []Product {
	list := make([]Product, 0)
	for _, p := range s.products {
		if keep(p) {
			list = append(list, p)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}
