package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	caterrors "github.com/pharmakit/storefront/internal/catalog/errors"
	"github.com/pharmakit/storefront/internal/inventory"
	"github.com/pharmakit/storefront/pkg/web"
)

// pharmacyID resolves the caller's pharmacy from the authenticated user.
// A pharmacy account's user ID doubles as its pharmacy ID.
func (h *Handler) pharmacyID(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (uuid.UUID, bool) {
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		web.RespondError(w, mLogger, http.StatusForbidden, "Account is not linked to a pharmacy")
		return uuid.UUID{}, false
	}
	return id, true
}

// ListOwnProducts returns the pharmacy's own product range.
func (h *Handler) ListOwnProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := h.pharmacyID(w, r, mLogger)
	if !ok {
		return
	}

	products, err := h.catalog.ProductsForPharmacy(r.Context(), id)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing own products", "pharmacy_id", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, products)
}

// CreateProduct adds a product to the pharmacy's range.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := h.pharmacyID(w, r, mLogger)
	if !ok {
		return
	}

	var dto inventory.CreateProductDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.inventory.CreateProduct(r.Context(), id, dto)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Failed to create product", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created", "ID", created.ID)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// UpdateProduct replaces a product's attributes. Only the owning
// pharmacy can update it; a foreign product is indistinguishable from a
// version conflict.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	pharmacy, ok := h.pharmacyID(w, r, mLogger)
	if !ok {
		return
	}
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	var dto inventory.UpdateProductDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	dto.ID = id.String()

	updated, err := h.inventory.UpdateProduct(r.Context(), pharmacy, dto)
	if err != nil {
		if errors.Is(err, caterrors.ErrProductNotFound) {
			web.RespondError(w, mLogger, http.StatusConflict, fmt.Sprintf("Product %s not found or modified by someone else", id))
			return
		}
		mLogger.WarnContext(r.Context(), "Failed to update product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Failed to update product")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// UpdateStock sets a product's stock quantity within the calling
// pharmacy's own range.
func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	pharmacy, ok := h.pharmacyID(w, r, mLogger)
	if !ok {
		return
	}
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	var dto inventory.UpdateStockDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	dto.ID = id.String()

	updated, err := h.inventory.UpdateStock(r.Context(), pharmacy, dto)
	if err != nil {
		if errors.Is(err, caterrors.ErrProductNotFound) {
			web.RespondError(w, mLogger, http.StatusConflict, fmt.Sprintf("Product %s not found or modified by someone else", id))
			return
		}
		mLogger.WarnContext(r.Context(), "Failed to update stock", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Failed to update stock")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeleteProduct withdraws a product from the calling pharmacy's range.
// The current version must be passed as a query parameter.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	pharmacy, ok := h.pharmacyID(w, r, mLogger)
	if !ok {
		return
	}
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	version, ok := web.ParseValidateGt(r, w, mLogger, "version", 0)
	if !ok {
		return
	}

	if err := h.inventory.DeleteProduct(r.Context(), pharmacy, id, version); err != nil {
		if errors.Is(err, caterrors.ErrProductNotFound) {
			web.RespondError(w, mLogger, http.StatusConflict, fmt.Sprintf("Product %s not found or modified by someone else", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Failed to delete product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusNoContent, nil)
}
