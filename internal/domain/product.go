package domain

// MaxLineQuantity is the ceiling for a single line when the product does not
// limit it through inventory.
const MaxLineQuantity = 99

// Product is the catalog snapshot stored on a cart line at add-time.
type Product struct {
	ID             string  `json:"_id"`
	Slug           string  `json:"slug,omitempty"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	Stock          int     `json:"stock"`
	TrackInventory bool    `json:"trackInventory"`
	AllowBackorder bool    `json:"allowBackorder"`
	Category       string  `json:"category,omitempty"`
	ImageURL       string  `json:"imageUrl,omitempty"`
}

// LimitsQuantity reports whether available stock caps the line quantity.
func (p Product) LimitsQuantity() bool {
	return p.TrackInventory && !p.AllowBackorder
}

// StockLimit returns the highest quantity a line of this product may hold.
func (p Product) StockLimit() int {
	if p.LimitsQuantity() {
		if p.Stock < MaxLineQuantity {
			return p.Stock
		}
	}
	return MaxLineQuantity
}
