package cart

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMirror struct {
	mu       sync.Mutex
	upserts  []Line
	removes  []string
	clears   int
	loaded   []Line
	failWith error
}

func (m *mockMirror) Upsert(_ context.Context, _ string, line Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.upserts = append(m.upserts, line)
	return nil
}

func (m *mockMirror) Remove(_ context.Context, _ string, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.removes = append(m.removes, productID)
	return nil
}

func (m *mockMirror) Clear(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.clears++
	return nil
}

func (m *mockMirror) Load(_ context.Context, _ string) ([]Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.loaded, nil
}

func (m *mockMirror) upsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.upserts)
}

func (m *mockMirror) removeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.removes)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_AddItemMirrors(t *testing.T) {
	mirror := &mockMirror{}
	svc := NewService(mirror, time.Second, testLogger())
	c := New()

	line, err := svc.AddItem(context.Background(), "user-1", c, item("p1", "9.99", 5))
	require.NoError(t, err)
	assert.Equal(t, int32(1), line.Quantity)

	require.Eventually(t, func() bool { return mirror.upsertCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestService_StockLimitSkipsMirror(t *testing.T) {
	mirror := &mockMirror{}
	svc := NewService(mirror, time.Second, testLogger())
	c := New()

	_, err := svc.AddItem(context.Background(), "user-1", c, item("p1", "9.99", 1))
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), "user-1", c, item("p1", "9.99", 1))
	require.ErrorIs(t, err, ErrStockLimit)

	require.Eventually(t, func() bool { return mirror.upsertCount() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, mirror.upsertCount(), "rejected add never reaches the mirror")
}

func TestService_MirrorFailureKeepsLocalCart(t *testing.T) {
	mirror := &mockMirror{failWith: errors.New("redis down")}
	svc := NewService(mirror, time.Second, testLogger())
	c := New()

	line, err := svc.AddItem(context.Background(), "user-1", c, item("p1", "9.99", 5))
	require.NoError(t, err, "mirror failures never surface to the caller")
	assert.Equal(t, int32(1), line.Quantity)
	assert.Equal(t, 1, c.Len())
}

func TestService_DecrementMirrorsRemoveAtZero(t *testing.T) {
	mirror := &mockMirror{}
	svc := NewService(mirror, time.Second, testLogger())
	c := New()

	_, err := svc.AddItem(context.Background(), "user-1", c, item("p1", "9.99", 5))
	require.NoError(t, err)

	_, removed, ok := svc.DecrementItem(context.Background(), "user-1", c, "p1")
	require.True(t, ok)
	require.True(t, removed)

	require.Eventually(t, func() bool { return mirror.removeCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"p1"}, mirror.removes)
}

func TestService_AnonymousUserSkipsMirror(t *testing.T) {
	mirror := &mockMirror{}
	svc := NewService(mirror, time.Second, testLogger())
	c := New()

	_, err := svc.AddItem(context.Background(), "", c, item("p1", "9.99", 5))
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, mirror.upsertCount())
}

func TestService_Restore(t *testing.T) {
	t.Run("loads mirrored lines", func(t *testing.T) {
		mirror := &mockMirror{loaded: []Line{
			{ProductID: "p1", Name: "A", UnitPrice: decimal.RequireFromString("3.50"), Available: 4, Quantity: 2},
		}}
		svc := NewService(mirror, time.Second, testLogger())
		c := New()

		svc.Restore(context.Background(), "user-1", c)
		require.Equal(t, 1, c.Len())
		assert.True(t, c.Total().Equal(decimal.RequireFromString("7.00")))
	})

	t.Run("load failure leaves cart empty", func(t *testing.T) {
		mirror := &mockMirror{failWith: errors.New("redis down")}
		svc := NewService(mirror, time.Second, testLogger())
		c := New()

		svc.Restore(context.Background(), "user-1", c)
		assert.Equal(t, 0, c.Len())
	})
}

func TestService_NilMirrorIsLocalOnly(t *testing.T) {
	svc := NewService(nil, time.Second, testLogger())
	c := New()

	_, err := svc.AddItem(context.Background(), "user-1", c, item("p1", "9.99", 5))
	require.NoError(t, err)
	svc.ClearCart(context.Background(), "user-1", c)
	svc.Restore(context.Background(), "user-1", c)
	assert.Equal(t, 0, c.Len())
}
