package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clinicshop/storefront/internal/backend"
	"github.com/clinicshop/storefront/internal/catalog"
	"github.com/clinicshop/storefront/internal/checkout"
	"github.com/clinicshop/storefront/pkg/logger"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error    string            `json:"error"`
	Code     string            `json:"code,omitempty"`
	Details  string            `json:"details,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

const signInPath = "/signin"

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body too large")
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// handleBackendError converts a store API failure into the response the UI
// understands. Transport failures and rejections are told apart by the error
// chain, never by the response body.
func handleBackendError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var apiErr *backend.APIError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "the store took too long to respond")
	case errors.Is(err, backend.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "the store is temporarily unavailable")
	case errors.Is(err, backend.ErrUnauthorized):
		respondJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:    "please sign in to continue",
			Code:     "unauthenticated",
			Redirect: signInPath,
		})
	case errors.Is(err, backend.ErrNotFound), errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "not_found", messageOr(err, "not found"))
	case errors.Is(err, catalog.ErrInvalidProduct):
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
	case errors.As(err, &apiErr) && apiErr.StatusCode < 500:
		status := http.StatusBadRequest
		if apiErr.StatusCode == http.StatusUnprocessableEntity || apiErr.StatusCode == http.StatusConflict {
			status = apiErr.StatusCode
		}
		respondJSON(w, status, ErrorResponse{Error: messageOr(err, "request rejected by the store"), Code: "rejected", Details: apiErr.Code})
	default:
		logger.FromContext(r.Context(), log).Error("store API call failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "upstream_error", "the store could not complete the request")
	}
}

func asAPIError(err error) (*backend.APIError, bool) {
	var apiErr *backend.APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

func messageOr(err error, fallback string) string {
	if apiErr, ok := asAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func handleCheckoutError(w http.ResponseWriter, err error) {
	if errors.Is(err, checkout.ErrSubmissionInProgress) {
		respondError(w, http.StatusConflict, "checkout_in_progress", "an order for this cart is already being placed")
		return
	}

	resp := ErrorResponse{Error: checkout.Message(err)}
	var checkoutErr *checkout.Error
	if errors.As(err, &checkoutErr) {
		resp.Fields = checkoutErr.Fields
		if checkoutErr.RedirectToSignIn {
			resp.Redirect = signInPath
		}
	}

	var status int
	switch checkout.Classify(err) {
	case checkout.KindValidation:
		status, resp.Code = http.StatusUnprocessableEntity, "validation_failed"
	case checkout.KindAuthentication:
		status, resp.Code = http.StatusUnauthorized, "unauthenticated"
	case checkout.KindNetwork:
		status, resp.Code = http.StatusServiceUnavailable, "service_unavailable"
	default:
		status, resp.Code = http.StatusBadRequest, "order_rejected"
	}
	respondJSON(w, status, resp)
}
