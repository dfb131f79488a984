// Package rest provides the HTTP surface of the storefront.
package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/pharmakit/storefront/internal/auth"
	"github.com/pharmakit/storefront/internal/cart"
	catalogsvc "github.com/pharmakit/storefront/internal/catalog/service"
	"github.com/pharmakit/storefront/internal/inventory"
	phstore "github.com/pharmakit/storefront/internal/pharmacy/store"
	"github.com/pharmakit/storefront/internal/session"
	"github.com/pharmakit/storefront/pkg/web"
)

// AuthService is the subset of the auth service the handlers need.
type AuthService interface {
	Register(ctx context.Context, dto auth.RegisterDto) (string, error)
	SignIn(ctx context.Context, creds auth.Credentials) (*auth.Identity, error)
	SignOut(ctx context.Context, refreshToken string)
}

type Handler struct {
	catalog    catalogsvc.CatalogService
	cartSvc    *cart.Service
	sessions   *session.Manager
	pharmacies phstore.PharmacyStore
	inventory  inventory.InventoryService
	auth       AuthService
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewHandler creates the storefront HTTP handler set.
func NewHandler(
	catalog catalogsvc.CatalogService,
	cartSvc *cart.Service,
	sessions *session.Manager,
	pharmacies phstore.PharmacyStore,
	inventorySvc inventory.InventoryService,
	authSvc AuthService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		catalog:    catalog,
		cartSvc:    cartSvc,
		sessions:   sessions,
		pharmacies: pharmacies,
		inventory:  inventorySvc,
		auth:       authSvc,
		validate:   validator.New(),

		logger: logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the storefront. authMW
// guards the signed-in surface; the app wires either bearer token or
// trusted header authentication depending on configuration.
func (h *Handler) RegisterRoutes(r *chi.Mux, authMW func(http.Handler) http.Handler) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.SignIn)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/categories", h.ListCategories)
			r.Get("/categories/{id}/products", h.ProductsForCategory)
			r.Get("/products/{id}", h.FindProduct)
		})

		r.Route("/pharmacies", func(r chi.Router) {
			r.Get("/locations", h.ListLocations)
			r.Get("/{id}/products", h.ProductsForPharmacy)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMW)
			r.Post("/auth/logout", h.SignOut)

			// selection state belongs to the session
			r.Route("/pharmacies/selection", func(r chi.Router) {
				r.Get("/", h.Selection)
				r.Put("/", h.SelectPharmacy)
				r.Put("/location", h.SetLocation)
				r.Post("/seed", h.SeedSelection)
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.ClearCart)
				r.Post("/items", h.AddItem)
				r.Route("/items/{id}", func(r chi.Router) {
					r.Post("/increment", h.IncrementItem)
					r.Post("/decrement", h.DecrementItem)
					r.Delete("/", h.RemoveItem)
				})
			})

			r.Route("/inventory/products", func(r chi.Router) {
				r.Use(h.requirePharmacyRole)
				r.Get("/", h.ListOwnProducts)
				r.Post("/", h.CreateProduct)
				r.Route("/{id}", func(r chi.Router) {
					r.Put("/", h.UpdateProduct)
					r.Put("/stock", h.UpdateStock)
					r.Delete("/", h.DeleteProduct)
				})
			})
		})
	})
	r.Get("/healthz", h.HealthCheck)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// requirePharmacyRole rejects requests whose token does not carry the
// pharmacy role.
func (h *Handler) requirePharmacyRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if web.GetRole(r) != auth.RolePharmacy {
			web.RespondError(w, h.loggerWithReqID(r), http.StatusForbidden, "Pharmacy role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// activeSession resolves the caller's session. Responds 401 when the
// user is authenticated but has no session (signed out elsewhere).
func (h *Handler) activeSession(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (*session.Session, bool) {
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return nil, false
	}
	sess := h.sessions.Get(userID)
	if sess == nil {
		web.RespondError(w, mLogger, http.StatusUnauthorized, "No active session; sign in first")
		return nil, false
	}
	return sess, true
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
