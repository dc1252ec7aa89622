package repository

import (
	"context"
	"errors"

	"github.com/clinicshop/storefront/internal/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrCorruptCart  = errors.New("stored cart is corrupt")
)

// CartRepository keeps one serialized cart per visitor cart id.
type CartRepository interface {
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	SaveCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, cartID string) error
	Close() error
}
