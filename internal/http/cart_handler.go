package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/clinicshop/storefront/internal/cart"
	"github.com/clinicshop/storefront/internal/domain"
	"github.com/clinicshop/storefront/internal/pricing"
	"github.com/clinicshop/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductLookup resolves the product snapshot an added line is built from.
type ProductLookup interface {
	Product(ctx context.Context, idOrSlug string) (domain.Product, error)
}

type CartHandler struct {
	carts    *cart.Manager
	products ProductLookup
	pricing  *pricing.Calculator
	timeout  time.Duration
	log      *zap.Logger
}

func NewCartHandler(carts *cart.Manager, products ProductLookup, calc *pricing.Calculator, timeout time.Duration, log *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:    carts,
		products: products,
		pricing:  calc,
		timeout:  timeout,
		log:      log,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity"`
}

type CartItemDTO struct {
	ProductID  string  `json:"product_id"`
	Slug       string  `json:"slug,omitempty"`
	Name       string  `json:"name"`
	ImageURL   string  `json:"image_url,omitempty"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
	MaxAllowed int     `json:"max_allowed"`
	Subtotal   float64 `json:"subtotal"`
}

type CartResponseDTO struct {
	CartID     string        `json:"cart_id"`
	Items      []CartItemDTO `json:"items"`
	TotalItems int           `json:"total_items"`
	Subtotal   float64       `json:"subtotal"`
	Version    int64         `json:"version"`
}

type CartMutationDTO struct {
	Cart    CartResponseDTO `json:"cart"`
	Change  cart.Change     `json:"change"`
	Message string          `json:"message,omitempty"`
}

type SummaryResponseDTO struct {
	Breakdown pricing.Breakdown `json:"breakdown"`
	Display   pricing.Display   `json:"display"`
}

type ShippingMethodsDTO struct {
	Methods []pricing.MethodRate `json:"methods"`
	TaxRate float64              `json:"tax_rate"`
}

func newCartResponse(c domain.Cart) CartResponseDTO {
	items := make([]CartItemDTO, len(c.Items))
	for i, item := range c.Items {
		items[i] = CartItemDTO{
			ProductID:  item.Product.ID,
			Slug:       item.Product.Slug,
			Name:       item.Product.Name,
			ImageURL:   item.Product.ImageURL,
			UnitPrice:  item.Product.Price,
			Quantity:   item.Quantity,
			MaxAllowed: item.Product.StockLimit(),
			Subtotal:   item.Subtotal(),
		}
	}
	return CartResponseDTO{
		CartID:     c.ID,
		Items:      items,
		TotalItems: c.TotalItems(),
		Subtotal:   c.TotalPrice(),
		Version:    c.Version,
	}
}

func changeMessage(ch cart.Change) string {
	switch {
	case ch.Clamped && ch.Quantity == 0:
		return "this product is out of stock"
	case ch.Clamped:
		return "quantity adjusted to the available stock"
	}
	return ""
}

func (h *CartHandler) store(r *http.Request) (*cart.Store, bool) {
	cartID := getCartID(r.Context())
	if cartID == "" {
		return nil, false
	}
	return h.carts.Get(r.Context(), cartID), true
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing_cart", "missing cart cookie")
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(s.Snapshot()))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, ok := h.store(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing_cart", "missing cart cookie")
		return
	}

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	product, err := h.products.Product(ctx, req.ProductID)
	if err != nil {
		handleBackendError(w, r, h.log, err)
		return
	}

	change := s.AddItem(product, quantity)
	if change.Clamped {
		logger.FromContext(r.Context(), h.log).Debug("cart quantity clamped",
			zap.String("product_id", product.ID),
			zap.Int("requested", change.Requested),
			zap.Int("quantity", change.Quantity))
	}

	status := http.StatusCreated
	if change.Quantity == 0 {
		status = http.StatusOK
	}
	respondJSON(w, status, CartMutationDTO{
		Cart:    newCartResponse(s.Snapshot()),
		Change:  change,
		Message: changeMessage(change),
	})
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing_cart", "missing cart cookie")
		return
	}

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity is required")
		return
	}

	change := s.UpdateQuantity(productID, *req.Quantity)
	respondJSON(w, http.StatusOK, CartMutationDTO{
		Cart:    newCartResponse(s.Snapshot()),
		Change:  change,
		Message: changeMessage(change),
	})
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing_cart", "missing cart cookie")
		return
	}

	change := s.RemoveItem(chi.URLParam(r, "product_id"))
	respondJSON(w, http.StatusOK, CartMutationDTO{
		Cart:   newCartResponse(s.Snapshot()),
		Change: change,
	})
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing_cart", "missing cart cookie")
		return
	}

	s.Clear()
	respondJSON(w, http.StatusOK, newCartResponse(s.Snapshot()))
}

// GET /api/v1/cart/summary?shipping_method=
func (h *CartHandler) Summary(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing_cart", "missing cart cookie")
		return
	}

	method := domain.ShippingMethod(r.URL.Query().Get("shipping_method"))
	breakdown, err := h.pricing.Calculate(s.Lines(), method)
	if errors.Is(err, pricing.ErrUnknownShippingMethod) {
		respondError(w, http.StatusBadRequest, "invalid_shipping_method", err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, SummaryResponseDTO{
		Breakdown: breakdown,
		Display:   breakdown.Display(),
	})
}

// GET /api/v1/shipping-methods
func (h *CartHandler) ShippingMethods(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ShippingMethodsDTO{
		Methods: h.pricing.Methods(),
		TaxRate: h.pricing.TaxRate(),
	})
}
