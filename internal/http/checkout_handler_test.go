package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clinicshop/storefront/internal/backend"
	"github.com/clinicshop/storefront/internal/checkout"
	"github.com/clinicshop/storefront/internal/domain"
	"github.com/clinicshop/storefront/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type OrderCreatorMock struct {
	order *domain.Order
	err   error
	token string
}

func (m *OrderCreatorMock) CreateOrder(_ context.Context, token, _ string, _ domain.OrderDraft) (*domain.Order, error) {
	m.token = token
	return m.order, m.err
}

func checkoutBody() checkout.Request {
	return checkout.Request{
		ShippingAddress: domain.Address{
			FullName:     "Ana Ruiz",
			Phone:        "600123456",
			Email:        "ana@example.com",
			AddressLine1: "Calle Mayor 1",
			City:         "Madrid",
			State:        "Madrid",
			PostalCode:   "28013",
			Country:      "ES",
		},
		SameAsShipping: true,
		PaymentMethod:  domain.PaymentCard,
		ShippingMethod: domain.ShippingStandard,
	}
}

func newTestCheckoutHandler(t *testing.T, orders *OrderCreatorMock) (*CheckoutHandler, func() int) {
	t.Helper()
	m := newTestManager(t)
	store := m.Get(context.Background(), testCartID)
	store.AddItem(domain.Product{ID: "p1", Price: 10}, 2)
	store.AddItem(domain.Product{ID: "p2", Price: 5}, 3)

	svc := checkout.NewService(orders, pricing.NewCalculator(pricing.DefaultConfig()), zap.NewNop())
	return NewCheckoutHandler(m, svc, zap.NewNop()), store.TotalItems
}

func TestCheckout_Success(t *testing.T) {
	orders := &OrderCreatorMock{order: &domain.Order{ID: "o1", OrderNumber: "ORD-1", Total: 47.99}}
	handler, totalItems := newTestCheckoutHandler(t, orders)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/", jsonBody(t, checkoutBody()))
	request = withToken(withCartID(request, testCartID), "tok")
	handler.Submit(recorder, request)

	assert.Equal(t, http.StatusCreated, recorder.Code)
	var response CheckoutResponseDTO
	decodeResponse(t, recorder, &response)
	assert.Equal(t, "ORD-1", response.OrderNumber)
	assert.Equal(t, "47.99", response.Estimate.Total)
	assert.Equal(t, "tok", orders.token)
	assert.Zero(t, totalItems())
}

func TestCheckout_ValidationErrors(t *testing.T) {
	handler, totalItems := newTestCheckoutHandler(t, &OrderCreatorMock{})

	body := checkoutBody()
	body.ShippingAddress.FullName = ""
	body.ShippingAddress.Phone = ""
	body.ShippingAddress.PostalCode = ""

	recorder := httptest.NewRecorder()
	request := withToken(withCartID(httptest.NewRequest("POST", "/", jsonBody(t, body)), testCartID), "tok")
	handler.Submit(recorder, request)

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	var response ErrorResponse
	decodeResponse(t, recorder, &response)
	assert.Equal(t, "validation_failed", response.Code)
	assert.Len(t, response.Fields, 3)
	assert.Equal(t, 5, totalItems())
}

func TestCheckout_Unauthenticated(t *testing.T) {
	handler, totalItems := newTestCheckoutHandler(t, &OrderCreatorMock{})

	recorder := httptest.NewRecorder()
	request := withCartID(httptest.NewRequest("POST", "/", jsonBody(t, checkoutBody())), testCartID)
	handler.Submit(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	var response ErrorResponse
	decodeResponse(t, recorder, &response)
	assert.Equal(t, signInPath, response.Redirect)
	assert.Equal(t, 5, totalItems())
}

func TestCheckout_BackendFailures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unavailable", fmt.Errorf("%w: connection refused", backend.ErrUnavailable), http.StatusServiceUnavailable, "service_unavailable"},
		{"rejected", &backend.APIError{StatusCode: http.StatusBadRequest, Message: "Insufficient stock"}, http.StatusBadRequest, "order_rejected"},
		{"expired", &backend.APIError{StatusCode: http.StatusUnauthorized}, http.StatusUnauthorized, "unauthenticated"},
		{"server error", &backend.APIError{StatusCode: http.StatusInternalServerError, Message: "Payment provider is down"}, http.StatusBadRequest, "order_rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, totalItems := newTestCheckoutHandler(t, &OrderCreatorMock{err: tt.err})

			recorder := httptest.NewRecorder()
			request := withToken(withCartID(httptest.NewRequest("POST", "/", jsonBody(t, checkoutBody())), testCartID), "tok")
			handler.Submit(recorder, request)

			require.Equal(t, tt.wantStatus, recorder.Code)
			var response ErrorResponse
			decodeResponse(t, recorder, &response)
			assert.Equal(t, tt.wantCode, response.Code)
			assert.NotEmpty(t, response.Error)
			assert.Equal(t, 5, totalItems())
		})
	}
}

type blockingOrderCreator struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingOrderCreator) CreateOrder(ctx context.Context, _, _ string, _ domain.OrderDraft) (*domain.Order, error) {
	close(b.started)
	select {
	case <-b.release:
		return &domain.Order{ID: "o1"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func checkoutStatus(t *testing.T, handler *CheckoutHandler) domain.CheckoutStatus {
	t.Helper()
	recorder := httptest.NewRecorder()
	handler.Status(recorder, withCartID(httptest.NewRequest("GET", "/", nil), testCartID))
	require.Equal(t, http.StatusOK, recorder.Code)
	var response CheckoutStatusDTO
	decodeResponse(t, recorder, &response)
	return response.Status
}

func TestCheckout_StatusFollowsSubmission(t *testing.T) {
	m := newTestManager(t)
	m.Get(context.Background(), testCartID).AddItem(domain.Product{ID: "p1", Price: 10}, 1)
	orders := &blockingOrderCreator{started: make(chan struct{}), release: make(chan struct{})}
	svc := checkout.NewService(orders, pricing.NewCalculator(pricing.DefaultConfig()), zap.NewNop())
	handler := NewCheckoutHandler(m, svc, zap.NewNop())

	assert.Equal(t, domain.CheckoutStatusIdle, checkoutStatus(t, handler))

	request := withToken(withCartID(httptest.NewRequest("POST", "/", jsonBody(t, checkoutBody())), testCartID), "tok")
	done := make(chan int)
	go func() {
		recorder := httptest.NewRecorder()
		handler.Submit(recorder, request)
		done <- recorder.Code
	}()

	<-orders.started
	assert.Equal(t, domain.CheckoutStatusSubmitting, checkoutStatus(t, handler))

	close(orders.release)
	assert.Equal(t, http.StatusCreated, <-done)
	assert.Equal(t, domain.CheckoutStatusIdle, checkoutStatus(t, handler))
}

func TestCheckout_StatusRequiresCart(t *testing.T) {
	handler, _ := newTestCheckoutHandler(t, &OrderCreatorMock{})

	recorder := httptest.NewRecorder()
	handler.Status(recorder, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCheckout_ServerErrorShowsStoreMessage(t *testing.T) {
	orders := &OrderCreatorMock{err: &backend.APIError{StatusCode: http.StatusInternalServerError, Message: "Payment provider is down"}}
	handler, _ := newTestCheckoutHandler(t, orders)

	recorder := httptest.NewRecorder()
	request := withToken(withCartID(httptest.NewRequest("POST", "/", jsonBody(t, checkoutBody())), testCartID), "tok")
	handler.Submit(recorder, request)

	var response ErrorResponse
	decodeResponse(t, recorder, &response)
	assert.Equal(t, "Payment provider is down", response.Error)
}
