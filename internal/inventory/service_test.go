package inventory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	caterrors "github.com/pharmakit/storefront/internal/catalog/errors"
	"github.com/pharmakit/storefront/internal/catalog/store"
	"github.com/pharmakit/storefront/pkg/messaging"
)

type mockStore struct {
	store.CatalogStore
	created        *store.CreateProductParams
	updated        *store.UpdateProductParams
	stockID        uuid.UUID
	stockPharmacy  uuid.UUID
	deletePharmacy uuid.UUID
	stock          int32
	returnErr      error
	product        *store.Product
}

func (m *mockStore) CreateProduct(_ context.Context, params store.CreateProductParams) (*store.Product, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	m.created = &params
	return m.product, nil
}

func (m *mockStore) UpdateProduct(_ context.Context, params store.UpdateProductParams) (*store.Product, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	m.updated = &params
	return m.product, nil
}

func (m *mockStore) UpdateStock(_ context.Context, id, pharmacyID uuid.UUID, stock int32, _ int32) (*store.Product, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	m.stockID = id
	m.stockPharmacy = pharmacyID
	m.stock = stock
	return m.product, nil
}

func (m *mockStore) DeleteProduct(_ context.Context, _, pharmacyID uuid.UUID, _ int32) error {
	m.deletePharmacy = pharmacyID
	return m.returnErr
}

type mockPublisher struct {
	events []messaging.Event
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, event messaging.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleProduct(pharmacyID uuid.UUID) *store.Product {
	return &store.Product{
		ID:            uuid.New(),
		Name:          "Ibuprofen 400",
		PriceCents:    999,
		StockQuantity: 12,
		CategoryID:    uuid.New(),
		PharmacyID:    uuid.NullUUID{UUID: pharmacyID, Valid: true},
		Version:       1,
	}
}

func TestService_CreateProduct(t *testing.T) {
	pharmacyID := uuid.New()
	repo := &mockStore{product: sampleProduct(pharmacyID)}
	pub := &mockPublisher{}
	svc := NewService(repo, pub, testLogger())

	dto := CreateProductDto{
		Name:       "Ibuprofen 400",
		Price:      decimal.RequireFromString("9.99"),
		Stock:      12,
		CategoryID: uuid.NewString(),
	}
	result, err := svc.CreateProduct(context.Background(), pharmacyID, dto)
	require.NoError(t, err)

	assert.Equal(t, int64(999), repo.created.PriceCents, "price stored in cents")
	assert.Equal(t, pharmacyID, repo.created.PharmacyID.UUID)
	assert.True(t, result.Price.Equal(decimal.RequireFromString("9.99")))
	assert.Len(t, pub.events, 1, "stock change announced")
}

func TestService_CreateProduct_Validation(t *testing.T) {
	svc := NewService(&mockStore{}, nil, testLogger())

	tests := []struct {
		name string
		dto  CreateProductDto
	}{
		{"missing name", CreateProductDto{Price: decimal.RequireFromString("1.00"), CategoryID: uuid.NewString()}},
		{"bad category id", CreateProductDto{Name: "X", Price: decimal.RequireFromString("1.00"), CategoryID: "nope"}},
		{"negative stock", CreateProductDto{Name: "X", Price: decimal.RequireFromString("1.00"), Stock: -1, CategoryID: uuid.NewString()}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), uuid.New(), tc.dto)
			assert.Error(t, err)
		})
	}
}

func TestService_UpdateStock(t *testing.T) {
	pharmacyID := uuid.New()
	product := sampleProduct(pharmacyID)
	repo := &mockStore{product: product}
	pub := &mockPublisher{}
	svc := NewService(repo, pub, testLogger())

	result, err := svc.UpdateStock(context.Background(), pharmacyID, UpdateStockDto{
		ID:      product.ID.String(),
		Stock:   5,
		Version: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, product.ID, repo.stockID)
	assert.Equal(t, pharmacyID, repo.stockPharmacy, "write scoped to the calling pharmacy")
	assert.Equal(t, int32(5), repo.stock)
	assert.Equal(t, int32(12), result.Stock, "returns the stored state")
	require.Len(t, pub.events, 1)
}

func TestService_UpdateStock_VersionConflict(t *testing.T) {
	repo := &mockStore{returnErr: caterrors.ErrProductNotFound}
	svc := NewService(repo, nil, testLogger())

	_, err := svc.UpdateStock(context.Background(), uuid.New(), UpdateStockDto{
		ID:      uuid.NewString(),
		Stock:   5,
		Version: 1,
	})
	require.ErrorIs(t, err, caterrors.ErrProductNotFound)
}

func TestService_UpdateStock_ForeignPharmacy(t *testing.T) {
	owner := uuid.New()
	product := sampleProduct(owner)
	repo := store.NewInMemoryStore(nil)
	created, err := repo.CreateProduct(context.Background(), store.CreateProductParams{
		Name:       product.Name,
		PriceCents: product.PriceCents,
		Stock:      product.StockQuantity,
		CategoryID: product.CategoryID,
		PharmacyID: uuid.NullUUID{UUID: owner, Valid: true},
	})
	require.NoError(t, err)
	svc := NewService(repo, nil, testLogger())

	// another pharmacy must not be able to touch the product
	_, err = svc.UpdateStock(context.Background(), uuid.New(), UpdateStockDto{
		ID:      created.ID.String(),
		Stock:   0,
		Version: created.Version,
	})
	require.ErrorIs(t, err, caterrors.ErrProductNotFound)

	err = svc.DeleteProduct(context.Background(), uuid.New(), created.ID, created.Version)
	require.ErrorIs(t, err, caterrors.ErrProductNotFound)

	// the owner still can
	updated, err := svc.UpdateStock(context.Background(), owner, UpdateStockDto{
		ID:      created.ID.String(),
		Stock:   0,
		Version: created.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(0), updated.Stock)
}

func TestService_PublishFailureDoesNotFailWrite(t *testing.T) {
	pharmacyID := uuid.New()
	repo := &mockStore{product: sampleProduct(pharmacyID)}
	pub := &mockPublisher{err: errors.New("nats down")}
	svc := NewService(repo, pub, testLogger())

	_, err := svc.UpdateStock(context.Background(), pharmacyID, UpdateStockDto{
		ID:      uuid.NewString(),
		Stock:   5,
		Version: 1,
	})
	require.NoError(t, err, "broker failures never fail the inventory write")
}

func TestService_DeleteProduct(t *testing.T) {
	pharmacyID := uuid.New()
	repo := &mockStore{}
	svc := NewService(repo, nil, testLogger())
	require.NoError(t, svc.DeleteProduct(context.Background(), pharmacyID, uuid.New(), 1))
	assert.Equal(t, pharmacyID, repo.deletePharmacy, "delete scoped to the calling pharmacy")

	svc = NewService(&mockStore{returnErr: caterrors.ErrProductNotFound}, nil, testLogger())
	err := svc.DeleteProduct(context.Background(), pharmacyID, uuid.New(), 1)
	require.ErrorIs(t, err, caterrors.ErrProductNotFound)
}

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(999), toCents(decimal.RequireFromString("9.99")))
	assert.Equal(t, int64(1000), toCents(decimal.RequireFromString("10")))
	assert.Equal(t, int64(1), toCents(decimal.RequireFromString("0.01")))
}
