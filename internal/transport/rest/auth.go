package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pharmakit/storefront/internal/auth"
	"github.com/pharmakit/storefront/pkg/web"
)

type signInResponse struct {
	UserID string         `json:"user_id"`
	Email  string         `json:"email"`
	Role   string         `json:"role"`
	Tokens auth.TokenPair `json:"tokens"`
}

type signOutDto struct {
	RefreshToken string `json:"refresh_token"`
}

// Register creates a new account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	if h.auth == nil {
		web.RespondError(w, mLogger, http.StatusServiceUnavailable, "Authentication is not configured")
		return
	}

	var dto auth.RegisterDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, err := h.auth.Register(r.Context(), dto)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			web.RespondError(w, mLogger, http.StatusConflict, "An account with this email already exists")
			return
		}
		mLogger.ErrorContext(r.Context(), "Registration failed", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Registration failed")
		return
	}
	mLogger.InfoContext(r.Context(), "User registered", "user_id", userID)
	web.RespondJSON(w, mLogger, http.StatusCreated, map[string]string{"id": userID})
}

// SignIn exchanges credentials for tokens, starts the session and
// restores the mirrored cart into it.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	if h.auth == nil {
		web.RespondError(w, mLogger, http.StatusServiceUnavailable, "Authentication is not configured")
		return
	}

	var creds auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity, err := h.auth.SignIn(r.Context(), creds)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			web.RespondError(w, mLogger, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		mLogger.ErrorContext(r.Context(), "Sign-in failed", "error", err)
		web.RespondError(w, mLogger, http.StatusServiceUnavailable, "Sign-in is temporarily unavailable")
		return
	}

	sess := h.sessions.Create(identity.UserID, identity.Email, identity.Role)
	h.cartSvc.Restore(r.Context(), sess.UserID, sess.Cart)

	mLogger.InfoContext(r.Context(), "User signed in", "user_id", identity.UserID, "role", identity.Role)
	web.RespondJSON(w, mLogger, http.StatusOK, signInResponse{
		UserID: identity.UserID,
		Email:  identity.Email,
		Role:   identity.Role,
		Tokens: identity.Tokens,
	})
}

// SignOut destroys the session and its cart. The refresh token, when
// provided, is invalidated at the identity provider as well.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}

	var dto signOutDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err == nil && dto.RefreshToken != "" && h.auth != nil {
		h.auth.SignOut(r.Context(), dto.RefreshToken)
	}

	h.sessions.Destroy(userID)
	mLogger.InfoContext(r.Context(), "User signed out", "user_id", userID)
	web.RespondJSON(w, mLogger, http.StatusNoContent, nil)
}
