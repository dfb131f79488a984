package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmakit/storefront/internal/pharmacy"
	phstore "github.com/pharmakit/storefront/internal/pharmacy/store"
)

type stubPharmacyStore struct{}

func (stubPharmacyStore) ListLocations(_ context.Context) ([]string, error) { return nil, nil }
func (stubPharmacyStore) FindByLocation(_ context.Context, _ string) ([]phstore.Pharmacy, error) {
	return nil, nil
}
func (stubPharmacyStore) FindNearest(_ context.Context, _, _ float64) (*phstore.Pharmacy, error) {
	return nil, nil
}
func (stubPharmacyStore) FindByID(_ context.Context, _ uuid.UUID) (*phstore.Pharmacy, error) {
	return nil, nil
}

func selectorFactory() func() *pharmacy.Selector {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return func() *pharmacy.Selector {
		return pharmacy.NewSelector(stubPharmacyStore{}, nil, time.Second, logger)
	}
}

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(selectorFactory())

	s := m.Create("u-1", "anna@example.com", "patient")
	require.NotNil(t, s.Cart)
	require.NotNil(t, s.Selector)
	assert.Equal(t, 0, s.Cart.Len(), "session starts with an empty cart")
	assert.Empty(t, s.Selector.Snapshot().Location, "session starts with no selection")
	assert.Same(t, s, m.Get("u-1"))

	destroyed := m.Destroy("u-1")
	assert.Same(t, s, destroyed)
	assert.Nil(t, m.Get("u-1"), "cart and selection do not survive sign-out")
	assert.Equal(t, 0, m.Len())
}

func TestManager_CreateReplacesExistingSession(t *testing.T) {
	m := NewManager(selectorFactory())

	first := m.Create("u-1", "anna@example.com", "patient")
	second := m.Create("u-1", "anna@example.com", "patient")

	assert.NotSame(t, first, second)
	assert.NotSame(t, first.Selector, second.Selector, "a fresh session gets a fresh selector")
	assert.Same(t, second, m.Get("u-1"))
	assert.Equal(t, 1, m.Len())
}

func TestManager_SelectionIsPerSession(t *testing.T) {
	m := NewManager(selectorFactory())

	anna := m.Create("u-1", "anna@example.com", "patient")
	ben := m.Create("u-2", "ben@example.com", "patient")

	anna.Selector.SetLocation(context.Background(), "Berlin")

	assert.Equal(t, "Berlin", anna.Selector.Snapshot().Location)
	assert.Empty(t, ben.Selector.Snapshot().Location, "one user's selection never leaks into another session")
}

func TestManager_DestroyUnknownUser(t *testing.T) {
	m := NewManager(nil)
	assert.Nil(t, m.Destroy("ghost"))
}
