package http

import (
	"context"
	"net/http"
	"time"

	"github.com/clinicshop/storefront/internal/backend"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AccountClient interface {
	GetProfile(ctx context.Context, token string) (*backend.Customer, error)
	UpdateProfile(ctx context.Context, token string, update backend.ProfileUpdate) (*backend.Customer, error)
	AddAddress(ctx context.Context, token string, addr backend.CustomerAddress) (*backend.Customer, error)
	UpdateAddress(ctx context.Context, token, addressID string, addr backend.CustomerAddress) (*backend.Customer, error)
	DeleteAddress(ctx context.Context, token, addressID string) error
}

type AccountHandler struct {
	client  AccountClient
	timeout time.Duration
	log     *zap.Logger
}

func NewAccountHandler(client AccountClient, timeout time.Duration, log *zap.Logger) *AccountHandler {
	return &AccountHandler{
		client:  client,
		timeout: timeout,
		log:     log,
	}
}

// requireToken answers 401 with a sign-in redirect when the visitor is anonymous.
func requireToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := getToken(r.Context())
	if token == "" {
		respondJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:    "please sign in to continue",
			Code:     "unauthenticated",
			Redirect: signInPath,
		})
		return "", false
	}
	return token, true
}

// GET /api/v1/account/profile
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customer, err := h.client.GetProfile(ctx, token)
	if err != nil {
		handleBackendError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

// PUT /api/v1/account/profile
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	var req backend.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customer, err := h.client.UpdateProfile(ctx, token, req)
	if err != nil {
		handleBackendError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

// POST /api/v1/account/addresses
func (h *AccountHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	var req backend.CustomerAddress
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customer, err := h.client.AddAddress(ctx, token, req)
	if err != nil {
		handleBackendError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, customer)
}

// PUT /api/v1/account/addresses/{address_id}
func (h *AccountHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	var req backend.CustomerAddress
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customer, err := h.client.UpdateAddress(ctx, token, chi.URLParam(r, "address_id"), req)
	if err != nil {
		handleBackendError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

// DELETE /api/v1/account/addresses/{address_id}
func (h *AccountHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.client.DeleteAddress(ctx, token, chi.URLParam(r, "address_id")); err != nil {
		handleBackendError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
