package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pherrors "github.com/pharmakit/storefront/internal/pharmacy/errors"
)

// PgStore implements PharmacyStore using PostgreSQL as the data store.
type PgStore struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewPgStore creates a new instance of PharmacyStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool, logger *slog.Logger) *PgStore {
	return &PgStore{
		db:     dbp,
		logger: logger.With("component", "pharmacy_store"),
	}
}

const pharmacyColumns = "id, name, location, latitude, longitude, version"

// ListLocations returns the distinct locations pharmacies exist in.
func (p *PgStore) ListLocations(ctx context.Context) ([]string, error) {
	rows, err := p.db.Query(ctx, "SELECT DISTINCT location FROM pharmacies ORDER BY location")
	if err != nil {
		return nil, fmt.Errorf("failed to list pharmacy locations: %w", err)
	}
	defer rows.Close()

	locations := make([]string, 0)
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, fmt.Errorf("failed to scan location row: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read location rows: %w", err)
	}
	return locations, nil
}

// FindByLocation returns all pharmacies in a location, sorted by name.
func (p *PgStore) FindByLocation(ctx context.Context, location string) ([]Pharmacy, error) {
	rows, err := p.db.Query(ctx, "SELECT "+pharmacyColumns+" FROM pharmacies WHERE location = $1 ORDER BY name", location)
	if err != nil {
		return nil, fmt.Errorf("failed to query pharmacies by location: %w", err)
	}
	defer rows.Close()

	pharmacies := make([]Pharmacy, 0)
	for rows.Next() {
		pharmacy, err := scanPharmacy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pharmacy row: %w", err)
		}
		pharmacies = append(pharmacies, *pharmacy)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pharmacy rows: %w", err)
	}
	return pharmacies, nil
}

// FindNearest returns the pharmacy closest to the given coordinates.
// Distance is compared on squared deltas, good enough at city scale.
func (p *PgStore) FindNearest(ctx context.Context, latitude, longitude float64) (*Pharmacy, error) {
	row := p.db.QueryRow(ctx,
		`SELECT `+pharmacyColumns+` FROM pharmacies
		 ORDER BY (latitude - $1) * (latitude - $1) + (longitude - $2) * (longitude - $2)
		 LIMIT 1`,
		latitude, longitude)
	pharmacy, err := scanPharmacy(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pherrors.ErrPharmacyNotFound
		}
		return nil, fmt.Errorf("failed to find nearest pharmacy: %w", err)
	}
	return pharmacy, nil
}

// FindByID retrieves a pharmacy by its unique identifier.
// Returns ErrPharmacyNotFound if no pharmacy exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id uuid.UUID) (*Pharmacy, error) {
	row := p.db.QueryRow(ctx, "SELECT "+pharmacyColumns+" FROM pharmacies WHERE id = $1", id)
	pharmacy, err := scanPharmacy(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pherrors.ErrPharmacyNotFound
		}
		return nil, fmt.Errorf("failed to find pharmacy by ID: %w", err)
	}
	return pharmacy, nil
}

func scanPharmacy(row pgx.Row) (*Pharmacy, error) {
	var ph Pharmacy
	err := row.Scan(&ph.ID, &ph.Name, &ph.Location, &ph.Latitude, &ph.Longitude, &ph.Version)
	if err != nil {
		return nil, err
	}
	return &ph, nil
}
