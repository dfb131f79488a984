package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	caterrors "github.com/pharmakit/storefront/internal/catalog/errors"
	"github.com/pharmakit/storefront/internal/catalog/store"
)

func seededStore(t *testing.T) (store.CatalogStore, store.Category, []store.Product) {
	t.Helper()
	category := store.Category{ID: uuid.New(), Name: "Painkillers"}
	repo := store.NewInMemoryStore([]store.Category{category})

	names := []struct {
		name  string
		cents int64
	}{
		{"Ibuprofen 400", 999},
		{"Paracetamol 500", 549},
		{"Aspirin Complex", 1249},
	}
	products := make([]store.Product, 0, len(names))
	for _, n := range names {
		p, err := repo.CreateProduct(context.Background(), store.CreateProductParams{
			Name:       n.name,
			PriceCents: n.cents,
			Stock:      10,
			CategoryID: category.ID,
		})
		require.NoError(t, err)
		products = append(products, *p)
	}
	return repo, category, products
}

func TestService_ListCategories(t *testing.T) {
	repo, category, _ := seededStore(t)
	svc := NewService(repo)

	categories, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, category.ID.String(), categories[0].ID)
	assert.Equal(t, "Painkillers", categories[0].Name)
}

func TestService_ProductsForCategory(t *testing.T) {
	repo, category, _ := seededStore(t)
	svc := NewService(repo)

	t.Run("returns products with decimal prices", func(t *testing.T) {
		products, err := svc.ProductsForCategory(context.Background(), category.ID)
		require.NoError(t, err)
		require.Len(t, products, 3)

		byName := make(map[string]ProductDto, len(products))
		for _, p := range products {
			byName[p.Name] = p
		}
		assert.True(t, byName["Ibuprofen 400"].Price.Equal(decimal.RequireFromString("9.99")))
		assert.True(t, byName["Paracetamol 500"].Price.Equal(decimal.RequireFromString("5.49")))
	})

	t.Run("unknown category yields empty slice", func(t *testing.T) {
		products, err := svc.ProductsForCategory(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Empty(t, products)
	})
}

func TestService_FindProduct(t *testing.T) {
	repo, _, products := seededStore(t)
	svc := NewService(repo)

	t.Run("found", func(t *testing.T) {
		dto, err := svc.FindProduct(context.Background(), products[0].ID)
		require.NoError(t, err)
		assert.Equal(t, products[0].ID.String(), dto.ID)
		assert.Equal(t, int32(10), dto.Available)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.FindProduct(context.Background(), uuid.New())
		require.ErrorIs(t, err, caterrors.ErrProductNotFound)
	})
}

func TestSearch(t *testing.T) {
	products := []ProductDto{
		{ID: "1", Name: "Ibuprofen 400"},
		{ID: "2", Name: "Paracetamol 500"},
		{ID: "3", Name: "Aspirin Complex"},
	}

	t.Run("empty query returns the input unchanged", func(t *testing.T) {
		result := Search(products, "")
		assert.Equal(t, products, result)
	})

	t.Run("match is case-insensitive", func(t *testing.T) {
		result := Search(products, "IBUPRO")
		require.Len(t, result, 1)
		assert.Equal(t, "1", result[0].ID)
	})

	t.Run("substring matches anywhere in the name", func(t *testing.T) {
		result := Search(products, "00")
		require.Len(t, result, 2)
	})

	t.Run("no match yields empty slice", func(t *testing.T) {
		assert.Empty(t, Search(products, "zzz"))
	})

	t.Run("idempotent: searching a result again changes nothing", func(t *testing.T) {
		once := Search(products, "a")
		twice := Search(once, "a")
		assert.Equal(t, once, twice)
	})

	t.Run("input slice is never mutated", func(t *testing.T) {
		before := make([]ProductDto, len(products))
		copy(before, products)
		_ = Search(products, "paracetamol")
		assert.Equal(t, before, products)
	})
}
