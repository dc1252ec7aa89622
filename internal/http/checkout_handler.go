package http

import (
	"context"
	"net/http"

	"github.com/clinicshop/storefront/internal/cart"
	"github.com/clinicshop/storefront/internal/checkout"
	"github.com/clinicshop/storefront/internal/domain"
	"github.com/clinicshop/storefront/internal/pricing"
	"github.com/clinicshop/storefront/pkg/logger"
	"go.uber.org/zap"
)

type OrderSubmitter interface {
	Submit(ctx context.Context, store *cart.Store, token string, req checkout.Request) (*checkout.Result, error)
	Status(cartID string) domain.CheckoutStatus
}

type CheckoutHandler struct {
	carts    *cart.Manager
	checkout OrderSubmitter
	log      *zap.Logger
}

func NewCheckoutHandler(carts *cart.Manager, submitter OrderSubmitter, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		carts:    carts,
		checkout: submitter,
		log:      log,
	}
}

type CheckoutResponseDTO struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number,omitempty"`
	Status      string          `json:"status,omitempty"`
	Total       float64         `json:"total"`
	Estimate    pricing.Display `json:"estimate"`
}

type CheckoutStatusDTO struct {
	Status domain.CheckoutStatus `json:"status"`
}

// GET /api/v1/checkout/status
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	cartID := getCartID(r.Context())
	if cartID == "" {
		respondError(w, http.StatusBadRequest, "missing_cart", "missing cart cookie")
		return
	}
	respondJSON(w, http.StatusOK, CheckoutStatusDTO{Status: h.checkout.Status(cartID)})
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	cartID := getCartID(r.Context())
	if cartID == "" {
		respondError(w, http.StatusBadRequest, "missing_cart", "missing cart cookie")
		return
	}

	var req checkout.Request
	if !decodeJSON(w, r, &req) {
		return
	}

	store := h.carts.Get(r.Context(), cartID)
	res, err := h.checkout.Submit(r.Context(), store, getToken(r.Context()), req)
	if err != nil {
		logger.FromContext(r.Context(), h.log).Info("checkout not completed",
			zap.String("cart_id", cartID),
			zap.String("kind", string(checkout.Classify(err))))
		handleCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		OrderID:     res.Order.ID,
		OrderNumber: res.Order.OrderNumber,
		Status:      res.Order.Status,
		Total:       res.Order.Total,
		Estimate:    res.Breakdown.Display(),
	})
}
