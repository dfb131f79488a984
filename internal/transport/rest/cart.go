package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmakit/storefront/internal/cart"
	caterrors "github.com/pharmakit/storefront/internal/catalog/errors"
	"github.com/pharmakit/storefront/pkg/web"
)

// cartView is the cart as the client sees it: the lines plus the total,
// which is computed fresh for every response.
type cartView struct {
	Lines []cart.Line     `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// stockNotice is the body of a 409 answer to an add or increment that
// hit the stock ceiling. The cart was not changed.
type stockNotice struct {
	Notice string    `json:"notice"`
	Line   cart.Line `json:"line"`
}

type addItemDto struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

func viewOf(c *cart.Cart) cartView {
	return cartView{Lines: c.Lines(), Total: c.Total()}
}

// GetCart returns the session's cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.activeSession(w, r, mLogger)
	if !ok {
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, viewOf(sess.Cart))
}

// AddItem puts one unit of a product into the cart. The product is
// resolved from the catalog first so the line carries a fresh snapshot
// of price and availability.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.activeSession(w, r, mLogger)
	if !ok {
		return
	}

	var dto addItemDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(dto); err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid product ID")
		return
	}
	productID, err := uuid.Parse(dto.ProductID)
	if err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.catalog.FindProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, caterrors.ErrProductNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", productID))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error resolving product for cart", "ID", productID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to resolve product")
		return
	}

	item := cart.Item{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Available: product.Available,
		Image:     product.Image,
	}
	line, err := h.cartSvc.AddItem(r.Context(), sess.UserID, sess.Cart, item)
	if err != nil {
		if errors.Is(err, cart.ErrStockLimit) {
			web.RespondJSON(w, mLogger, http.StatusConflict, stockNotice{Notice: err.Error(), Line: line})
			return
		}
		mLogger.ErrorContext(r.Context(), "Error adding item to cart", "ID", productID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to add item")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, viewOf(sess.Cart))
}

// IncrementItem raises a line's quantity by one. Hitting the stock
// ceiling answers 409 with the unchanged line; a missing line is 404.
func (h *Handler) IncrementItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.activeSession(w, r, mLogger)
	if !ok {
		return
	}
	productID := r.PathValue("id")

	line, found, err := h.cartSvc.IncrementItem(r.Context(), sess.UserID, sess.Cart, productID)
	if !found {
		web.RespondError(w, mLogger, http.StatusNotFound, "No such line in cart")
		return
	}
	if err != nil {
		if errors.Is(err, cart.ErrStockLimit) {
			web.RespondJSON(w, mLogger, http.StatusConflict, stockNotice{Notice: err.Error(), Line: line})
			return
		}
		mLogger.ErrorContext(r.Context(), "Error incrementing cart line", "ID", productID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to increment item")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, viewOf(sess.Cart))
}

// DecrementItem lowers a line's quantity by one, removing it at zero.
// A missing line is 404.
func (h *Handler) DecrementItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.activeSession(w, r, mLogger)
	if !ok {
		return
	}
	productID := r.PathValue("id")

	_, _, found := h.cartSvc.DecrementItem(r.Context(), sess.UserID, sess.Cart, productID)
	if !found {
		web.RespondError(w, mLogger, http.StatusNotFound, "No such line in cart")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, viewOf(sess.Cart))
}

// RemoveItem deletes a line unconditionally. A missing line is 404.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.activeSession(w, r, mLogger)
	if !ok {
		return
	}
	productID := r.PathValue("id")

	if !h.cartSvc.RemoveItem(r.Context(), sess.UserID, sess.Cart, productID) {
		web.RespondError(w, mLogger, http.StatusNotFound, "No such line in cart")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, viewOf(sess.Cart))
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.activeSession(w, r, mLogger)
	if !ok {
		return
	}
	h.cartSvc.ClearCart(r.Context(), sess.UserID, sess.Cart)
	web.RespondJSON(w, mLogger, http.StatusOK, viewOf(sess.Cart))
}
