package cart

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// Item is the product snapshot a cart line is created from.
type Item struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Available int32
	Image     string
}

// Line is one product+quantity pairing within a cart.
// Invariants: Quantity >= 1 and Quantity <= Available. A line whose
// quantity would drop to zero is removed instead.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Available int32           `json:"available"`
	Quantity  int32           `json:"quantity"`
	Image     string          `json:"image,omitempty"`
}

// Total returns the line total: unit price times quantity.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity))
}

// Cart is the set of lines owned by exactly one session, keyed by
// product ID so at most one line exists per product. All operations are
// total: unknown product IDs are no-ops, never errors.
type Cart struct {
	mu    sync.Mutex
	lines map[string]Line
}

// New creates an empty cart.
func New() *Cart {
	return &Cart{lines: make(map[string]Line)}
}

// Add puts one unit of the product into the cart: a new line with
// quantity 1, or an increment of the existing line. Returns
// ErrStockLimit (cart unchanged) when the increment would exceed the
// product's available stock, or when the product has no stock at all.
func (c *Cart) Add(item Item) (Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if line, ok := c.lines[item.ProductID]; ok {
		return c.increment(line)
	}
	if item.Available < 1 {
		return Line{}, ErrStockLimit
	}
	line := Line{
		ProductID: item.ProductID,
		Name:      item.Name,
		UnitPrice: item.UnitPrice,
		Available: item.Available,
		Quantity:  1,
		Image:     item.Image,
	}
	c.lines[item.ProductID] = line
	return line, nil
}

// Increment raises an existing line's quantity by one, subject to the
// stock ceiling. The second return value is false when no line exists
// for the product (a no-op, not an error).
func (c *Cart) Increment(productID string) (Line, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, ok := c.lines[productID]
	if !ok {
		return Line{}, false, nil
	}
	updated, err := c.increment(line)
	return updated, true, err
}

// Decrement lowers a line's quantity by one. A line at quantity 1 is
// removed entirely (removed=true); a missing line is a no-op (ok=false).
func (c *Cart) Decrement(productID string) (line Line, removed bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, ok = c.lines[productID]
	if !ok {
		return Line{}, false, false
	}
	if line.Quantity <= 1 {
		delete(c.lines, productID)
		return line, true, true
	}
	line.Quantity--
	c.lines[productID] = line
	return line, false, true
}

// Remove deletes the line unconditionally. Returns false when no line
// existed (a no-op).
func (c *Cart) Remove(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.lines[productID]; !ok {
		return false
	}
	delete(c.lines, productID)
	return true
}

// Clear empties all lines.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = make(map[string]Line)
}

// Total returns the sum of line totals. It is recomputed on every call
// and never cached, so it cannot desynchronize from the lines.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Total())
	}
	return total
}

// Lines returns a snapshot of the cart lines sorted by product name.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := make([]Line, 0, len(c.lines))
	for _, line := range c.lines {
		list = append(list, line)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Load replaces the cart content with lines restored from the remote
// mirror. Lines violating the invariants are dropped rather than loaded.
func (c *Cart) Load(lines []Line) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = make(map[string]Line, len(lines))
	for _, line := range lines {
		if line.ProductID == "" || line.Quantity < 1 {
			continue
		}
		if line.Available >= 1 && line.Quantity > line.Available {
			line.Quantity = line.Available
		}
		c.lines[line.ProductID] = line
	}
}

// increment applies the stock-ceiling rule to an existing line.
// Callers must hold the lock.
func (c *Cart) increment(line Line) (Line, error) {
	if line.Quantity >= line.Available {
		return line, ErrStockLimit
	}
	line.Quantity++
	c.lines[line.ProductID] = line
	return line, nil
}
