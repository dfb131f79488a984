package store

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pharmakit/storefront/db"
	caterrors "github.com/pharmakit/storefront/internal/catalog/errors"
	"github.com/pharmakit/storefront/pkg/bootstrap"
)

const skipIntegrationTests = "STOREFRONT_SKIP_INTEGRATION_TESTS"

// CatalogStoreSuite is a test suite for the CatalogStore implementation.
type CatalogStoreSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	store       CatalogStore
	logger      *slog.Logger
	ctx         context.Context
	categoryID  uuid.UUID
	pharmacyID  uuid.UUID
}

// SetupSuite starts a PostgreSQL container and applies the schema.
func (s *CatalogStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dbName := "storefront"
	dbUser := "user"
	dbPassword := "password"

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgxpool")

	for i := range 10 {
		s.logger.Info("Pinging PostgreSQL database", "attempt", i+1)
		err = s.dbPool.Ping(s.ctx)
		if err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	require.NoError(s.T(), bootstrap.MigrateUp(connStr, db.Migrations), "Failed to apply migrations")
	s.logger.Info("Migrations applied for integration tests")

	s.store = NewPgStore(s.dbPool, s.logger)
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *CatalogStoreSuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
}

// SetupTest resets the tables and seeds one category and one pharmacy.
func (s *CatalogStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE products, categories, pharmacies RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err, "Failed to truncate tables")

	err = s.dbPool.QueryRow(s.ctx,
		"INSERT INTO categories (name, sort_order) VALUES ($1, $2) RETURNING id",
		"Painkillers", 1).Scan(&s.categoryID)
	require.NoError(s.T(), err, "Failed to seed category")

	err = s.dbPool.QueryRow(s.ctx,
		"INSERT INTO pharmacies (name, location, latitude, longitude) VALUES ($1, $2, $3, $4) RETURNING id",
		"Adler Apotheke", "Berlin", 52.52, 13.40).Scan(&s.pharmacyID)
	require.NoError(s.T(), err, "Failed to seed pharmacy")
}

func TestCatalogStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(CatalogStoreSuite))
}

// createTestProduct is a helper to insert a product through the store.
func (s *CatalogStoreSuite) createTestProduct(name string, priceCents int64, stock int32) *Product {
	s.T().Helper()
	product, err := s.store.CreateProduct(s.ctx, CreateProductParams{
		Name:       name,
		PriceCents: priceCents,
		Stock:      stock,
		CategoryID: s.categoryID,
		PharmacyID: uuid.NullUUID{UUID: s.pharmacyID, Valid: true},
	})
	require.NoError(s.T(), err, "createTestProduct helper failed")
	return product
}

func (s *CatalogStoreSuite) TestCreateAndFindByID() {
	created := s.createTestProduct("Ibuprofen 400", 999, 12)

	require.NotZero(s.T(), created.ID)
	require.Equal(s.T(), int64(999), created.PriceCents)
	require.Equal(s.T(), int32(1), created.Version)

	fetched, err := s.store.FindProductByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), created.ID, fetched.ID)
	require.Equal(s.T(), created.Name, fetched.Name)
	require.Equal(s.T(), created.PriceCents, fetched.PriceCents)
}

func (s *CatalogStoreSuite) TestFindByID_NotFound() {
	_, err := s.store.FindProductByID(s.ctx, uuid.New())
	require.ErrorIs(s.T(), err, caterrors.ErrProductNotFound)
}

func (s *CatalogStoreSuite) TestFindProductsByCategory() {
	s.createTestProduct("Ibuprofen 400", 999, 12)
	s.createTestProduct("Aspirin Complex", 1249, 5)

	products, err := s.store.FindProductsByCategory(s.ctx, s.categoryID)
	require.NoError(s.T(), err)
	require.Len(s.T(), products, 2)
	assert.Equal(s.T(), "Aspirin Complex", products[0].Name, "sorted by name")
	assert.Equal(s.T(), "Ibuprofen 400", products[1].Name)
}

func (s *CatalogStoreSuite) TestFindProductsByPharmacy() {
	s.createTestProduct("Ibuprofen 400", 999, 12)

	products, err := s.store.FindProductsByPharmacy(s.ctx, s.pharmacyID)
	require.NoError(s.T(), err)
	require.Len(s.T(), products, 1)

	products, err = s.store.FindProductsByPharmacy(s.ctx, uuid.New())
	require.NoError(s.T(), err)
	require.Empty(s.T(), products)
}

func (s *CatalogStoreSuite) TestUpdateStock_OptimisticLock() {
	created := s.createTestProduct("Ibuprofen 400", 999, 12)

	updated, err := s.store.UpdateStock(s.ctx, created.ID, s.pharmacyID, 7, created.Version)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int32(7), updated.StockQuantity)
	assert.Equal(s.T(), created.Version+1, updated.Version)

	// stale version must not win
	_, err = s.store.UpdateStock(s.ctx, created.ID, s.pharmacyID, 3, created.Version)
	require.ErrorIs(s.T(), err, caterrors.ErrProductNotFound)
}

func (s *CatalogStoreSuite) TestWritesScopedToOwningPharmacy() {
	created := s.createTestProduct("Ibuprofen 400", 999, 12)
	otherPharmacy := uuid.New()

	_, err := s.store.UpdateStock(s.ctx, created.ID, otherPharmacy, 0, created.Version)
	require.ErrorIs(s.T(), err, caterrors.ErrProductNotFound)

	err = s.store.DeleteProduct(s.ctx, created.ID, otherPharmacy, created.Version)
	require.ErrorIs(s.T(), err, caterrors.ErrProductNotFound)

	// the product is untouched
	fetched, err := s.store.FindProductByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int32(12), fetched.StockQuantity)
	assert.Equal(s.T(), created.Version, fetched.Version)
}

func (s *CatalogStoreSuite) TestDeleteProduct() {
	created := s.createTestProduct("Ibuprofen 400", 999, 12)

	require.NoError(s.T(), s.store.DeleteProduct(s.ctx, created.ID, s.pharmacyID, created.Version))
	_, err := s.store.FindProductByID(s.ctx, created.ID)
	require.ErrorIs(s.T(), err, caterrors.ErrProductNotFound)

	err = s.store.DeleteProduct(s.ctx, created.ID, s.pharmacyID, created.Version)
	require.ErrorIs(s.T(), err, caterrors.ErrProductNotFound)
}

func (s *CatalogStoreSuite) TestQuarantineMalformedRecord() {
	created := s.createTestProduct("Ibuprofen 400", 999, 12)

	// force a malformed row past the store's own write path
	_, err := s.dbPool.Exec(s.ctx, "UPDATE products SET name = '' WHERE id = $1", created.ID)
	require.NoError(s.T(), err)

	_, err = s.store.FindProductByID(s.ctx, created.ID)
	require.ErrorIs(s.T(), err, caterrors.ErrProductNotFound, "malformed record must not surface")

	products, err := s.store.FindProductsByCategory(s.ctx, s.categoryID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), products, "malformed record is quarantined from listings")
}
