// Package cart holds the active user's shopping cart and all quantity
// arithmetic. Every screen mutates the cart through this package only.
package cart

import "errors"

// ErrStockLimit is returned when adding or incrementing would push a
// line's quantity past the product's available stock. The cart is left
// unchanged; callers surface the condition as a notice, not a failure.
var ErrStockLimit = errors.New("no more stock available for this product")
