// Package pharmacy holds the pharmacy selection state of a storefront
// session: the chosen location, the pharmacies available there, and the
// single selected pharmacy the catalog is scoped to.
package pharmacy

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pharmakit/storefront/internal/pharmacy/store"
	"github.com/pharmakit/storefront/pkg/geo"
)

// GeoSource resolves the current device position.
type GeoSource interface {
	CurrentPosition(ctx context.Context) (geo.Position, error)
}

// Snapshot is an immutable view of the selector state.
type Snapshot struct {
	Location   string           `json:"location"`
	Pharmacies []store.Pharmacy `json:"pharmacies"`
	Selected   *store.Pharmacy  `json:"selected,omitempty"`
	Loading    bool             `json:"loading"`
}

// Selector tracks which pharmacy the user is shopping from. Lookups run
// asynchronously; each in-flight lookup carries the generation token
// current at launch, and a response whose token no longer matches is
// discarded. A user who picks location A and then quickly picks location
// B therefore always ends up seeing B's pharmacies, regardless of which
// lookup finishes first.
type Selector struct {
	store   store.PharmacyStore
	geo     GeoSource
	timeout time.Duration
	logger  *slog.Logger

	mu          sync.Mutex
	location    string
	pharmacies  []store.Pharmacy
	selected    *store.Pharmacy
	locationGen uint64
	selectGen   uint64
	pending     int
}

// NewSelector creates a selector. geo may be nil when no geolocation
// provider is configured; SeedFromPosition then does nothing.
func NewSelector(st store.PharmacyStore, geoSrc GeoSource, timeout time.Duration, logger *slog.Logger) *Selector {
	return &Selector{
		store:   st,
		geo:     geoSrc,
		timeout: timeout,
		logger:  logger.With("component", "pharmacy_selector"),
	}
}

// SetLocation records the chosen location and starts loading its
// pharmacy list. The previous list and selection are dropped immediately
// so the UI never shows pharmacies of a location the user moved away from.
func (s *Selector) SetLocation(ctx context.Context, location string) {
	s.mu.Lock()
	s.location = location
	s.pharmacies = nil
	s.selected = nil
	s.locationGen++
	s.selectGen++
	s.pending++
	token := s.locationGen
	s.mu.Unlock()

	go func() {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		pharmacies, err := s.store.FindByLocation(lookupCtx, location)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.pending--
		if token != s.locationGen {
			s.logger.DebugContext(ctx, "Discarded stale pharmacy list", "location", location)
			return
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to load pharmacies for location", "location", location, "error", err)
			return
		}
		s.pharmacies = pharmacies
	}()
}

// SelectPharmacy records the chosen pharmacy and resolves its details
// asynchronously, subject to the same staleness guard as SetLocation.
func (s *Selector) SelectPharmacy(ctx context.Context, id uuid.UUID) {
	s.mu.Lock()
	s.selectGen++
	s.pending++
	token := s.selectGen
	locToken := s.locationGen
	s.mu.Unlock()

	go func() {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		pharmacy, err := s.store.FindByID(lookupCtx, id)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.pending--
		if token != s.selectGen || locToken != s.locationGen {
			s.logger.DebugContext(ctx, "Discarded stale pharmacy selection", "pharmacy_id", id)
			return
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to resolve selected pharmacy", "pharmacy_id", id, "error", err)
			return
		}
		s.selected = pharmacy
	}()
}

// SeedFromPosition proposes an initial selection from the device
// position: the nearest pharmacy and its location. The proposal is
// applied only if the user has made no explicit choice in the meantime.
func (s *Selector) SeedFromPosition(ctx context.Context) {
	if s.geo == nil {
		return
	}
	s.mu.Lock()
	locToken := s.locationGen
	selToken := s.selectGen
	s.pending++
	s.mu.Unlock()

	go func() {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		finish := func() {
			s.mu.Lock()
			s.pending--
			s.mu.Unlock()
		}

		pos, err := s.geo.CurrentPosition(lookupCtx)
		if err != nil {
			// no position, no seed; the user picks manually
			s.logger.WarnContext(ctx, "Geolocation unavailable; skipping pharmacy seed", "error", err)
			finish()
			return
		}
		nearest, err := s.store.FindNearest(lookupCtx, pos.Latitude, pos.Longitude)
		if err != nil {
			s.logger.WarnContext(ctx, "No nearest pharmacy found", "error", err)
			finish()
			return
		}
		pharmacies, err := s.store.FindByLocation(lookupCtx, nearest.Location)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to load pharmacies for seeded location", "location", nearest.Location, "error", err)
			finish()
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.pending--
		if locToken != s.locationGen || selToken != s.selectGen {
			s.logger.DebugContext(ctx, "Discarded stale pharmacy seed", "location", nearest.Location)
			return
		}
		s.location = nearest.Location
		s.pharmacies = pharmacies
		s.selected = nearest
	}()
}

// Snapshot returns a copy of the current state. Loading reports whether
// any lookup is still in flight.
func (s *Selector) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Location: s.location,
		Loading:  s.pending > 0,
	}
	snap.Pharmacies = make([]store.Pharmacy, len(s.pharmacies))
	copy(snap.Pharmacies, s.pharmacies)
	if s.selected != nil {
		selected := *s.selected
		snap.Selected = &selected
	}
	return snap
}
