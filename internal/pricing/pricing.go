// Package pricing derives order totals from cart lines. Nothing here is
// stored; a breakdown is recomputed from the current cart on every read.
package pricing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/clinicshop/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var ErrUnknownShippingMethod = errors.New("unknown shipping method")

const (
	DefaultTaxRate               = 0.20
	DefaultFreeShippingThreshold = 50.0
)

type Config struct {
	TaxRate               float64
	FreeShippingThreshold float64
	// FreeShippingMethod is the only method waived above the threshold.
	FreeShippingMethod domain.ShippingMethod
	Rates              map[domain.ShippingMethod]float64
}

func DefaultConfig() Config {
	return Config{
		TaxRate:               DefaultTaxRate,
		FreeShippingThreshold: DefaultFreeShippingThreshold,
		FreeShippingMethod:    domain.ShippingStandard,
		Rates: map[domain.ShippingMethod]float64{
			domain.ShippingStandard: 5.99,
			domain.ShippingExpress:  12.99,
			domain.ShippingNextDay:  24.99,
		},
	}
}

type Breakdown struct {
	ShippingMethod domain.ShippingMethod `json:"shipping_method"`
	ItemCount      int                   `json:"item_count"`
	Subtotal       float64               `json:"subtotal"`
	ShippingCost   float64               `json:"shipping_cost"`
	Tax            float64               `json:"tax"`
	Total          float64               `json:"total"`
	FreeShipping   bool                  `json:"free_shipping"`
}

// Display is a breakdown rounded to cents for presentation.
type Display struct {
	Subtotal     string `json:"subtotal"`
	ShippingCost string `json:"shipping_cost"`
	Tax          string `json:"tax"`
	Total        string `json:"total"`
}

func (b Breakdown) Display() Display {
	return Display{
		Subtotal:     FormatAmount(b.Subtotal),
		ShippingCost: FormatAmount(b.ShippingCost),
		Tax:          FormatAmount(b.Tax),
		Total:        FormatAmount(b.Total),
	}
}

// FormatAmount rounds half away from zero to two decimal places.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Calculate prices items for the given shipping method. An empty method
// means the free-shipping-eligible one.
func (c *Calculator) Calculate(items []domain.LineItem, method domain.ShippingMethod) (Breakdown, error) {
	if method == "" {
		method = c.cfg.FreeShippingMethod
	}
	rate, ok := c.cfg.Rates[method]
	if !ok {
		return Breakdown{}, fmt.Errorf("%w: %q", ErrUnknownShippingMethod, method)
	}

	b := Breakdown{ShippingMethod: method}
	for _, item := range items {
		b.Subtotal += item.Subtotal()
		b.ItemCount += item.Quantity
	}

	b.ShippingCost = rate
	if method == c.cfg.FreeShippingMethod && b.Subtotal > c.cfg.FreeShippingThreshold {
		b.ShippingCost = 0
		b.FreeShipping = true
	}
	b.Tax = b.Subtotal * c.cfg.TaxRate
	b.Total = b.Subtotal + b.ShippingCost + b.Tax
	return b, nil
}

// Supports reports whether method has a rate.
func (c *Calculator) Supports(method domain.ShippingMethod) bool {
	_, ok := c.cfg.Rates[method]
	return ok
}

type MethodRate struct {
	Method                domain.ShippingMethod `json:"method"`
	Rate                  float64               `json:"rate"`
	FreeShippingThreshold *float64              `json:"free_shipping_threshold,omitempty"`
}

// Methods lists the rate table ordered by price.
func (c *Calculator) Methods() []MethodRate {
	out := make([]MethodRate, 0, len(c.cfg.Rates))
	for method, rate := range c.cfg.Rates {
		mr := MethodRate{Method: method, Rate: rate}
		if method == c.cfg.FreeShippingMethod {
			threshold := c.cfg.FreeShippingThreshold
			mr.FreeShippingThreshold = &threshold
		}
		out = append(out, mr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rate == out[j].Rate {
			return out[i].Method < out[j].Method
		}
		return out[i].Rate < out[j].Rate
	})
	return out
}

func (c *Calculator) TaxRate() float64 {
	return c.cfg.TaxRate
}
