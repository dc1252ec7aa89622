package backend

import (
	"context"
	"net/http"

	"github.com/clinicshop/storefront/internal/domain"
)

// CreateOrder submits draft on behalf of the token holder. The idempotency key
// lets the API drop a duplicate of the same submission.
func (c *Client) CreateOrder(ctx context.Context, token, idempotencyKey string, draft domain.OrderDraft) (*domain.Order, error) {
	r := request{
		method: http.MethodPost,
		path:   "/api/orders",
		token:  token,
		body:   draft,
	}
	if idempotencyKey != "" {
		r.headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}

	var order domain.Order
	if err := c.do(ctx, r, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) ListOrders(ctx context.Context, token string) ([]domain.Order, error) {
	if token == "" {
		return nil, &APIError{StatusCode: http.StatusUnauthorized, Message: "sign in required"}
	}
	var orders []domain.Order
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/orders", token: token}, &orders)
	if err != nil {
		return nil, err
	}
	return orders, nil
}
