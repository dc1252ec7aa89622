package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/clinicshop/storefront/internal/backend"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Catalog interface {
	List(ctx context.Context, q backend.ProductQuery) (*backend.ProductPage, error)
	Get(ctx context.Context, idOrSlug string) (*backend.Product, error)
	Categories(ctx context.Context) ([]backend.Category, error)
}

type ProductHandler struct {
	catalog Catalog
	timeout time.Duration
	log     *zap.Logger
}

func NewProductHandler(catalog Catalog, timeout time.Duration, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
		log:     log,
	}
}

type CategoriesResponse struct {
	Categories []backend.Category `json:"categories"`
}

// GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	res, err := h.catalog.List(ctx, backend.ProductQuery{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Sort:     q.Get("sort"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		handleBackendError(w, r, h.log, err)
		return
	}
	if res.Products == nil {
		res.Products = []backend.Product{}
	}
	respondJSON(w, http.StatusOK, res)
}

// GET /api/v1/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.catalog.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleBackendError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// GET /api/v1/categories
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		handleBackendError(w, r, h.log, err)
		return
	}
	if categories == nil {
		categories = []backend.Category{}
	}
	respondJSON(w, http.StatusOK, CategoriesResponse{Categories: categories})
}
