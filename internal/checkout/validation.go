package checkout

import (
	"net/mail"
	"strings"
	"unicode"

	"github.com/clinicshop/storefront/internal/domain"
	"github.com/clinicshop/storefront/internal/pricing"
)

const minPhoneDigits = 7

type Request struct {
	ShippingAddress domain.Address        `json:"shippingAddress"`
	BillingAddress  domain.Address        `json:"billingAddress"`
	SameAsShipping  bool                  `json:"sameAsShipping"`
	PaymentMethod   domain.PaymentMethod  `json:"paymentMethod"`
	ShippingMethod  domain.ShippingMethod `json:"shippingMethod"`
	Notes           string                `json:"notes,omitempty"`
}

// Billing is the address billed, derived when the order is submitted.
func (r Request) Billing() domain.Address {
	if r.SameAsShipping {
		return r.ShippingAddress
	}
	return r.BillingAddress
}

func (r Request) shippingMethod() domain.ShippingMethod {
	if r.ShippingMethod == "" {
		return domain.ShippingStandard
	}
	return r.ShippingMethod
}

// Validate collects every problem with the request keyed by field path. An
// empty map means the request may be submitted.
func Validate(r Request, lines []domain.LineItem, calc *pricing.Calculator) map[string]string {
	fields := make(map[string]string)

	validateAddress(fields, "shippingAddress", r.ShippingAddress)
	if !r.SameAsShipping {
		validateAddress(fields, "billingAddress", r.BillingAddress)
	}

	if r.PaymentMethod == "" {
		fields["paymentMethod"] = "Select a payment method"
	} else if !r.PaymentMethod.Valid() {
		fields["paymentMethod"] = "Unsupported payment method"
	}

	if calc != nil && !calc.Supports(r.shippingMethod()) {
		fields["shippingMethod"] = "Unsupported shipping method"
	}

	if len(lines) == 0 {
		fields["cart"] = "Your cart is empty"
	}
	return fields
}

func validateAddress(fields map[string]string, prefix string, a domain.Address) {
	required := []struct {
		key, value, label string
	}{
		{"fullName", a.FullName, "Full name"},
		{"phone", a.Phone, "Phone"},
		{"email", a.Email, "Email"},
		{"addressLine1", a.AddressLine1, "Address"},
		{"city", a.City, "City"},
		{"state", a.State, "State"},
		{"postalCode", a.PostalCode, "Postal code"},
		{"country", a.Country, "Country"},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			fields[prefix+"."+f.key] = f.label + " is required"
		}
	}

	if _, blank := fields[prefix+".email"]; !blank && !validEmail(a.Email) {
		fields[prefix+".email"] = "Enter a valid email address"
	}
	if _, blank := fields[prefix+".phone"]; !blank && !validPhone(a.Phone) {
		fields[prefix+".phone"] = "Enter a valid phone number"
	}
}

func validEmail(s string) bool {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}

func validPhone(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' || r == '-' || r == ' ' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return digits >= minPhoneDigits
}
