package store

import (
	"fmt"

	"github.com/google/uuid"
)

// validateProduct is the typed ingestion boundary for product records.
// Rows that would put undefined or nonsensical values into the catalog
// (missing id or name, negative price or stock) are rejected here and
// quarantined by the caller instead of propagating downstream.
func validateProduct(p Product) error {
	if p.ID == uuid.Nil {
		return fmt.Errorf("product record has empty id")
	}
	if p.Name == "" {
		return fmt.Errorf("product record %s has empty name", p.ID)
	}
	if p.PriceCents < 0 {
		return fmt.Errorf("product record %s has negative price %d", p.ID, p.PriceCents)
	}
	if p.StockQuantity < 0 {
		return fmt.Errorf("product record %s has negative stock %d", p.ID, p.StockQuantity)
	}
	return nil
}

// validateCategory rejects malformed category records.
func validateCategory(c Category) error {
	if c.ID == uuid.Nil {
		return fmt.Errorf("category record has empty id")
	}
	if c.Name == "" {
		return fmt.Errorf("category record %s has empty name", c.ID)
	}
	return nil
}
