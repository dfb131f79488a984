// Package store provides data access for pharmacies.
package store

import (
	"context"

	"github.com/google/uuid"
)

// Pharmacy represents a pharmacy branch carried by the storefront.
type Pharmacy struct {
	ID        uuid.UUID
	Name      string
	Location  string
	Latitude  float64
	Longitude float64
	Version   int32
}

// PharmacyStore defines methods for pharmacy data access.
type PharmacyStore interface {
	// ListLocations returns the distinct locations pharmacies exist in,
	// sorted alphabetically.
	ListLocations(ctx context.Context) ([]string, error)

	// FindByLocation returns all pharmacies in a location, sorted by name.
	// Returns an empty slice for an unknown location.
	FindByLocation(ctx context.Context, location string) ([]Pharmacy, error)

	// FindNearest returns the pharmacy closest to the given coordinates.
	// Returns ErrPharmacyNotFound when no pharmacies exist at all.
	FindNearest(ctx context.Context, latitude, longitude float64) (*Pharmacy, error)

	// FindByID returns a single pharmacy.
	// Returns ErrPharmacyNotFound if no pharmacy exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Pharmacy, error)
}
