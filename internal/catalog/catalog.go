package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clinicshop/storefront/internal/backend"
	"github.com/clinicshop/storefront/internal/domain"
	"golang.org/x/sync/singleflight"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product id")
)

// Source is the part of the store API the catalog reads from.
type Source interface {
	ListProducts(ctx context.Context, q backend.ProductQuery) (*backend.ProductPage, error)
	GetProduct(ctx context.Context, idOrSlug string) (*backend.Product, error)
	ListCategories(ctx context.Context) ([]backend.Category, error)
}

const DefaultLookupTimeout = 10 * time.Second

type Service struct {
	source  Source
	timeout time.Duration
	sfg     singleflight.Group // collapses concurrent lookups of one product
}

type Option func(*Service)

// WithLookupTimeout bounds a shared product lookup.
func WithLookupTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func NewService(source Source, opts ...Option) *Service {
	s := &Service{source: source, timeout: DefaultLookupTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Product resolves the snapshot a cart line is built from.
func (s *Service) Product(ctx context.Context, idOrSlug string) (domain.Product, error) {
	key := strings.TrimSpace(idOrSlug)
	if key == "" {
		return domain.Product{}, ErrInvalidProduct
	}

	// The flight is shared, so it runs detached from any one caller and each
	// caller stops waiting on its own context.
	ch := s.sfg.DoChan(key, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		p, err := s.source.GetProduct(lookupCtx, key)
		if err != nil {
			return nil, err
		}
		return p.ToDomain(), nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return domain.Product{}, ctx.Err()
	}
	v, err := res.Val, res.Err
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return domain.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, key)
		}
		return domain.Product{}, err
	}

	product := v.(domain.Product)
	if product.ID == "" {
		return domain.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, key)
	}
	return product, nil
}

func (s *Service) Get(ctx context.Context, idOrSlug string) (*backend.Product, error) {
	return s.source.GetProduct(ctx, idOrSlug)
}

func (s *Service) List(ctx context.Context, q backend.ProductQuery) (*backend.ProductPage, error) {
	return s.source.ListProducts(ctx, q)
}

func (s *Service) Categories(ctx context.Context) ([]backend.Category, error) {
	return s.source.ListCategories(ctx)
}
