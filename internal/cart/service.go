package cart

import (
	"context"
	"log/slog"
	"time"
)

// Service applies cart mutations and mirrors each successful one to the
// remote per-user collection. Mirroring is fire-and-forget: a write
// failure is logged and never rolls back the local mutation, so the UI
// always reflects the local cart.
type Service struct {
	mirror  Mirror
	timeout time.Duration
	logger  *slog.Logger
}

// NewService creates a cart service. A nil mirror disables remote
// replication entirely (local-only mode).
func NewService(mirror Mirror, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		mirror:  mirror,
		timeout: timeout,
		logger:  logger.With("component", "cart"),
	}
}

// AddItem adds one unit of the product to the cart.
// Returns ErrStockLimit when the stock ceiling is reached.
func (s *Service) AddItem(ctx context.Context, userID string, c *Cart, item Item) (Line, error) {
	line, err := c.Add(item)
	if err != nil {
		// the unchanged line accompanies ErrStockLimit so callers can
		// show the notice next to it
		return line, err
	}
	s.mirrorWrite(ctx, userID, func(ctx context.Context) error {
		return s.mirror.Upsert(ctx, userID, line)
	})
	return line, nil
}

// IncrementItem raises the quantity of an existing line by one.
// A missing line is a no-op (ok=false); the stock ceiling yields ErrStockLimit.
func (s *Service) IncrementItem(ctx context.Context, userID string, c *Cart, productID string) (Line, bool, error) {
	line, ok, err := c.Increment(productID)
	if err != nil || !ok {
		return line, ok, err
	}
	s.mirrorWrite(ctx, userID, func(ctx context.Context) error {
		return s.mirror.Upsert(ctx, userID, line)
	})
	return line, true, nil
}

// DecrementItem lowers the quantity of a line by one, removing the line
// when it reaches zero. A missing line is a no-op.
func (s *Service) DecrementItem(ctx context.Context, userID string, c *Cart, productID string) (Line, bool, bool) {
	line, removed, ok := c.Decrement(productID)
	if !ok {
		return line, removed, false
	}
	s.mirrorWrite(ctx, userID, func(ctx context.Context) error {
		if removed {
			return s.mirror.Remove(ctx, userID, productID)
		}
		return s.mirror.Upsert(ctx, userID, line)
	})
	return line, removed, true
}

// RemoveItem deletes a line unconditionally. A missing line is a no-op.
func (s *Service) RemoveItem(ctx context.Context, userID string, c *Cart, productID string) bool {
	if !c.Remove(productID) {
		return false
	}
	s.mirrorWrite(ctx, userID, func(ctx context.Context) error {
		return s.mirror.Remove(ctx, userID, productID)
	})
	return true
}

// ClearCart empties the cart, e.g. after checkout completes.
func (s *Service) ClearCart(ctx context.Context, userID string, c *Cart) {
	c.Clear()
	s.mirrorWrite(ctx, userID, func(ctx context.Context) error {
		return s.mirror.Clear(ctx, userID)
	})
}

// Restore loads the mirrored lines into a fresh cart at sign-in. On any
// failure the cart simply starts empty; the session is never blocked on
// the mirror.
func (s *Service) Restore(ctx context.Context, userID string, c *Cart) {
	if s.mirror == nil || userID == "" {
		return
	}
	loadCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	lines, err := s.mirror.Load(loadCtx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to restore mirrored cart; starting empty", "user_id", userID, "error", err)
		return
	}
	c.Load(lines)
}

// mirrorWrite runs a mirror operation asynchronously with a bounded
// timeout. Skipped for anonymous users and when no mirror is configured.
func (s *Service) mirrorWrite(ctx context.Context, userID string, op func(ctx context.Context) error) {
	if s.mirror == nil || userID == "" {
		return
	}
	go func() {
		opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		if err := op(opCtx); err != nil {
			s.logger.WarnContext(ctx, "Cart mirror write failed; local cart kept", "user_id", userID, "error", err)
		}
	}()
}
