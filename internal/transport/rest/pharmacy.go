package rest

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/pharmakit/storefront/pkg/web"
)

type setLocationDto struct {
	Location string `json:"location" validate:"required"`
}

type selectPharmacyDto struct {
	PharmacyID string `json:"pharmacy_id" validate:"required,uuid"`
}

// ListLocations returns the locations pharmacies exist in.
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	locations, err := h.pharmacies.ListLocations(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing pharmacy locations", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch locations")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, locations)
}

// Selection returns the session's pharmacy selection state. Clients
// poll this while a lookup started by SetLocation or SelectPharmacy is
// still in flight.
func (h *Handler) Selection(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	sess, ok := h.activeSession(w, r, mLogger)
	if !ok {
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, sess.Selector.Snapshot())
}

// SetLocation records the chosen location on the session and starts
// loading its pharmacies. Answers 202 with the immediate state; the
// list fills in asynchronously.
func (h *Handler) SetLocation(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	sess, ok := h.activeSession(w, r, mLogger)
	if !ok {
		return
	}

	var dto setLocationDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(dto); err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Location is required")
		return
	}

	sess.Selector.SetLocation(r.Context(), dto.Location)
	web.RespondJSON(w, mLogger, http.StatusAccepted, sess.Selector.Snapshot())
}

// SelectPharmacy records the chosen pharmacy on the session and
// resolves its details asynchronously. Answers 202.
func (h *Handler) SelectPharmacy(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	sess, ok := h.activeSession(w, r, mLogger)
	if !ok {
		return
	}

	var dto selectPharmacyDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(dto); err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid pharmacy ID")
		return
	}
	id, err := uuid.Parse(dto.PharmacyID)
	if err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid pharmacy ID")
		return
	}

	sess.Selector.SelectPharmacy(r.Context(), id)
	web.RespondJSON(w, mLogger, http.StatusAccepted, sess.Selector.Snapshot())
}

// SeedSelection proposes an initial selection from the device position.
// Always answers 202; a failed or unavailable geolocation simply leaves
// the selection empty.
func (h *Handler) SeedSelection(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	sess, ok := h.activeSession(w, r, mLogger)
	if !ok {
		return
	}
	sess.Selector.SeedFromPosition(r.Context())
	web.RespondJSON(w, mLogger, http.StatusAccepted, sess.Selector.Snapshot())
}
