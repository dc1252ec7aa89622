package domain

import "time"

type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
	ShippingNextDay  ShippingMethod = "next_day"
)

func (m ShippingMethod) String() string {
	return string(m)
}

type PaymentMethod string

const (
	PaymentCard           PaymentMethod = "card"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentBankTransfer, PaymentCashOnDelivery:
		return true
	}
	return false
}

type Address struct {
	FullName     string `json:"fullName"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
}

type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderDraft is the order-creation payload sent to the store API.
type OrderDraft struct {
	Items           []OrderItem    `json:"items"`
	ShippingAddress Address        `json:"shippingAddress"`
	BillingAddress  Address        `json:"billingAddress"`
	PaymentMethod   PaymentMethod  `json:"paymentMethod"`
	ShippingMethod  ShippingMethod `json:"shippingMethod"`
	Notes           string         `json:"notes,omitempty"`
}

// NewOrderDraftItems maps cart lines to the id/quantity pairs the API expects.
func NewOrderDraftItems(items []LineItem) []OrderItem {
	out := make([]OrderItem, len(items))
	for i, item := range items {
		out[i] = OrderItem{
			ProductID: item.Product.ID,
			Quantity:  item.Quantity,
		}
	}
	return out
}

// Order is the record the store API returns once an order is created.
type Order struct {
	ID             string      `json:"_id"`
	OrderNumber    string      `json:"orderNumber,omitempty"`
	Status         string      `json:"status,omitempty"`
	PaymentStatus  string      `json:"paymentStatus,omitempty"`
	Items          []OrderLine `json:"items,omitempty"`
	Subtotal       float64     `json:"subtotal,omitempty"`
	ShippingCost   float64     `json:"shippingCost,omitempty"`
	Tax            float64     `json:"tax,omitempty"`
	Total          float64     `json:"total"`
	ShippingMethod string      `json:"shippingMethod,omitempty"`
	CreatedAt      *time.Time  `json:"createdAt,omitempty"`
}

type OrderLine struct {
	ProductID string  `json:"product"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}
