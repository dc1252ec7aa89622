package repository

import (
	"encoding/json"
	"fmt"

	"github.com/clinicshop/storefront/internal/domain"
)

func encodeCart(cart *domain.Cart) ([]byte, error) {
	data, err := json.Marshal(cart)
	if err != nil {
		return nil, fmt.Errorf("marshal cart failed: %w", err)
	}
	return data, nil
}

func decodeCart(cartID string, data []byte) (*domain.Cart, error) {
	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("%w: unmarshal cart failed: %v", ErrCorruptCart, err)
	}
	if cart.ID == "" {
		cart.ID = cartID
	}
	cart = cart.Normalize()
	return &cart, nil
}
