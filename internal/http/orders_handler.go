package http

import (
	"context"
	"net/http"
	"time"

	"github.com/clinicshop/storefront/internal/domain"
	"go.uber.org/zap"
)

type OrderLister interface {
	ListOrders(ctx context.Context, token string) ([]domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderLister
	timeout time.Duration
	log     *zap.Logger
}

func NewOrdersHandler(orders OrderLister, timeout time.Duration, log *zap.Logger) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
		log:     log,
	}
}

type OrdersResponseDTO struct {
	Orders []domain.Order `json:"orders"`
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrders(ctx, token)
	if err != nil {
		handleBackendError(w, r, h.log, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	respondJSON(w, http.StatusOK, OrdersResponseDTO{Orders: orders})
}
