package checkout

import (
	"testing"

	"github.com/clinicshop/storefront/internal/domain"
	"github.com/clinicshop/storefront/internal/pricing"
	"github.com/stretchr/testify/assert"
)

var oneLine = []domain.LineItem{{Product: domain.Product{ID: "p1", Price: 10}, Quantity: 1}}

func TestValidate_ValidRequest(t *testing.T) {
	fields := Validate(validRequest(), oneLine, pricing.NewCalculator(pricing.DefaultConfig()))
	assert.Empty(t, fields)
}

func TestValidate_BillingCheckedOnlyWhenSeparate(t *testing.T) {
	calc := pricing.NewCalculator(pricing.DefaultConfig())

	req := validRequest()
	assert.Empty(t, Validate(req, oneLine, calc))

	req.SameAsShipping = false
	fields := Validate(req, oneLine, calc)
	assert.Len(t, fields, 8)
	assert.Contains(t, fields, "billingAddress.fullName")
	assert.Contains(t, fields, "billingAddress.country")
}

func TestValidate_MalformedEmailAndPhone(t *testing.T) {
	req := validRequest()
	req.ShippingAddress.Email = "not-an-email"
	req.ShippingAddress.Phone = "call me"

	fields := Validate(req, oneLine, nil)
	assert.Equal(t, "Enter a valid email address", fields["shippingAddress.email"])
	assert.Equal(t, "Enter a valid phone number", fields["shippingAddress.phone"])
}

func TestValidate_MethodsAndCart(t *testing.T) {
	req := validRequest()
	req.PaymentMethod = "bitcoin"
	req.ShippingMethod = "drone"

	fields := Validate(req, nil, pricing.NewCalculator(pricing.DefaultConfig()))
	assert.Len(t, fields, 3)
	assert.Contains(t, fields, "paymentMethod")
	assert.Contains(t, fields, "shippingMethod")
	assert.Contains(t, fields, "cart")
}

func TestRequest_Billing(t *testing.T) {
	req := validRequest()
	req.BillingAddress = domain.Address{FullName: "Stale"}
	assert.Equal(t, req.ShippingAddress, req.Billing())

	req.SameAsShipping = false
	assert.Equal(t, "Stale", req.Billing().FullName)
}

func TestValidEmail(t *testing.T) {
	assert.True(t, validEmail("ana@example.com"))
	assert.False(t, validEmail("Ana <ana@example.com>"))
	assert.False(t, validEmail("ana@localhost"))
	assert.False(t, validEmail("ana"))
}
