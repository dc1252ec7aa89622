package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clinicshop/storefront/internal/backend"
	"github.com/clinicshop/storefront/internal/cart"
	"github.com/clinicshop/storefront/internal/domain"
	"github.com/clinicshop/storefront/internal/pricing"
	"github.com/clinicshop/storefront/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testCartID = "3f1c8a52-5b0e-4d5e-9a53-0b8f3c7f2a10"

type ProductLookupMock struct {
	products map[string]domain.Product
	err      error
}

func (m ProductLookupMock) Product(_ context.Context, id string) (domain.Product, error) {
	if m.err != nil {
		return domain.Product{}, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, &backend.APIError{StatusCode: http.StatusNotFound, Message: "Product not found"}
	}
	return p, nil
}

func defaultProducts() ProductLookupMock {
	return ProductLookupMock{products: map[string]domain.Product{
		"p1": {ID: "p1", Name: "Serum", Price: 10},
		"p2": {ID: "p2", Name: "Cream", Price: 5},
		"p3": {ID: "p3", Name: "Mask", Price: 20, Stock: 3, TrackInventory: true},
		"p4": {ID: "p4", Name: "Gone", Price: 20, Stock: 0, TrackInventory: true},
	}}
}

func newTestManager(t *testing.T) *cart.Manager {
	t.Helper()
	m := cart.NewManager(repository.NewMemoryRepository(), zap.NewNop(), cart.WithIdleTTL(time.Hour))
	t.Cleanup(func() { m.Close() })
	return m
}

func newTestCartHandler(t *testing.T, products ProductLookup) (*CartHandler, *cart.Manager) {
	t.Helper()
	m := newTestManager(t)
	calc := pricing.NewCalculator(pricing.DefaultConfig())
	return NewCartHandler(m, products, calc, 5*time.Second, zap.NewNop()), m
}

func withCartID(r *http.Request, cartID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), cartIDKey, cartID))
}

func withToken(r *http.Request, token string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), tokenKey, token))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(v))
}

func stringsReader(s string) *strings.Reader {
	return strings.NewReader(s)
}
