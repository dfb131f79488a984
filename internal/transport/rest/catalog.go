package rest

import (
	"errors"
	"fmt"
	"net/http"

	caterrors "github.com/pharmakit/storefront/internal/catalog/errors"
	catalogsvc "github.com/pharmakit/storefront/internal/catalog/service"
	"github.com/pharmakit/storefront/pkg/web"
)

// ListCategories returns the browsable categories. A failed load is
// answered with an empty list so the storefront still renders; the
// failure is only logged.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		mLogger.WarnContext(r.Context(), "Failed to load categories; responding with empty list", "error", err)
		web.RespondJSON(w, mLogger, http.StatusOK, []catalogsvc.CategoryDto{})
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, categories)
}

// ProductsForCategory returns a category's products, optionally filtered
// by the q query parameter.
func (h *Handler) ProductsForCategory(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	products, err := h.catalog.ProductsForCategory(r.Context(), id)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving products for category", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	products = catalogsvc.Search(products, r.URL.Query().Get("q"))
	web.RespondJSON(w, mLogger, http.StatusOK, products)
}

// ProductsForPharmacy returns the products a pharmacy offers, optionally
// filtered by the q query parameter.
func (h *Handler) ProductsForPharmacy(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	products, err := h.catalog.ProductsForPharmacy(r.Context(), id)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving products for pharmacy", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	products = catalogsvc.Search(products, r.URL.Query().Get("q"))
	web.RespondJSON(w, mLogger, http.StatusOK, products)
}

// FindProduct returns one product's details.
func (h *Handler) FindProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	product, err := h.catalog.FindProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, caterrors.ErrProductNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve product with ID %s", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, product)
}
