package domain

import "time"

type LineItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal is the unit price times the quantity, unrounded.
func (l LineItem) Subtotal() float64 {
	return l.Product.Price * float64(l.Quantity)
}

// Cart is a point-in-time copy of a visitor's cart. Items keep insertion order.
type Cart struct {
	ID        string     `json:"id"`
	Items     []LineItem `json:"items"`
	Version   int64      `json:"version"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

func (c Cart) TotalPrice() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Normalize repairs a cart read from storage: lines without a product id or
// with a non-positive quantity are dropped, duplicate ids are merged into the
// first occurrence and quantities are clamped to each product's stock limit.
func (c Cart) Normalize() Cart {
	items := make([]LineItem, 0, len(c.Items))
	index := make(map[string]int, len(c.Items))
	for _, item := range c.Items {
		if item.Product.ID == "" || item.Quantity < 1 {
			continue
		}
		if i, ok := index[item.Product.ID]; ok {
			items[i].Quantity += item.Quantity
			continue
		}
		index[item.Product.ID] = len(items)
		items = append(items, item)
	}

	kept := items[:0]
	for _, item := range items {
		if limit := item.Product.StockLimit(); item.Quantity > limit {
			item.Quantity = limit
		}
		if item.Quantity < 1 {
			continue
		}
		kept = append(kept, item)
	}
	c.Items = kept
	return c
}
