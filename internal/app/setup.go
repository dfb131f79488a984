// Package app contains the application setup for the storefront.
package app

import (
	"log/slog"
	"net/http"

	"github.com/Nerzal/gocloak/v13"
	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pharmakit/storefront/internal/auth"
	"github.com/pharmakit/storefront/internal/cart"
	catalogsvc "github.com/pharmakit/storefront/internal/catalog/service"
	catstore "github.com/pharmakit/storefront/internal/catalog/store"
	"github.com/pharmakit/storefront/internal/config"
	"github.com/pharmakit/storefront/internal/inventory"
	"github.com/pharmakit/storefront/internal/pharmacy"
	phstore "github.com/pharmakit/storefront/internal/pharmacy/store"
	"github.com/pharmakit/storefront/internal/session"
	"github.com/pharmakit/storefront/internal/transport/rest"
	"github.com/pharmakit/storefront/pkg/geo"
	"github.com/pharmakit/storefront/pkg/messaging"
	"github.com/pharmakit/storefront/pkg/server"
	"github.com/pharmakit/storefront/pkg/web"
)

type Dependencies struct {
	Catalog    catalogsvc.CatalogService
	CartSvc    *cart.Service
	Sessions   *session.Manager
	Pharmacies phstore.PharmacyStore
	Inventory  inventory.InventoryService
	Auth       rest.AuthService
	Verifier   web.TokenVerifier
	Logger     *slog.Logger
}

// SetupDependencies wires the domain services. redisClient, publisher,
// geoClient and verifier may be nil; the affected features degrade to
// local-only or header-based behavior.
func SetupDependencies(
	dbPool *pgxpool.Pool,
	redisClient *redis.Client,
	publisher messaging.Publisher,
	geoClient *geo.Client,
	verifier web.TokenVerifier,
	cfg *config.Config,
	logger *slog.Logger,
) *Dependencies {
	catalogStore := catstore.NewPgStore(dbPool, logger)
	pharmacyStore := phstore.NewPgStore(dbPool, logger)

	var mirror cart.Mirror
	if redisClient != nil {
		mirror = cart.NewRedisMirror(redisClient)
	}

	var geoSrc pharmacy.GeoSource
	if geoClient != nil {
		geoSrc = geoClient
	}

	var authSvc rest.AuthService
	if cfg.IdP.Enabled {
		authSvc = auth.NewService(gocloak.NewClient(cfg.IdP.BaseURL), cfg.IdP, logger)
	}

	newSelector := func() *pharmacy.Selector {
		return pharmacy.NewSelector(pharmacyStore, geoSrc, config.NetworkTimeout, logger)
	}

	return &Dependencies{
		Catalog:    catalogsvc.NewService(catalogStore),
		CartSvc:    cart.NewService(mirror, config.NetworkTimeout, logger),
		Sessions:   session.NewManager(newSelector),
		Pharmacies: pharmacyStore,
		Inventory:  inventory.NewService(catalogStore, publisher, logger),
		Auth:       authSvc,
		Verifier:   verifier,
		Logger:     logger,
	}
}

// SetupHttpHandler initializes the HTTP routes for the storefront.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the storefront application.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	handler := rest.NewHandler(deps.Catalog, deps.CartSvc, deps.Sessions, deps.Pharmacies, deps.Inventory, deps.Auth, deps.Logger)

	authMW := web.HeaderAuthMiddleware
	if deps.Verifier != nil {
		authMW = web.BearerAuthMiddleware(deps.Verifier)
	}
	handler.RegisterRoutes(mux, authMW)
}

// SetupHttpServer creates and configures an HTTP server for the storefront application.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	handler := SetupHttpHandler(deps)
	if cfg.Telemetry.Enabled {
		handler = otelhttp.NewHandler(handler, "storefront")
	}

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, handler)
}
