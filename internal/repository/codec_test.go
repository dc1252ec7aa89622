package repository

import (
	"testing"

	"github.com/clinicshop/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCart_Malformed(t *testing.T) {
	inputs := []string{
		"",
		"not json",
		`{"items": 12}`,
		`[1,2,3]`,
	}
	for _, in := range inputs {
		_, err := decodeCart("cart-1", []byte(in))
		assert.ErrorIs(t, err, ErrCorruptCart, "input %q", in)
	}
}

func TestDecodeCart_FillsIDAndNormalizes(t *testing.T) {
	data := []byte(`{"items":[
		{"product":{"_id":"p1","name":"Kit","price":12.5,"trackInventory":true,"stock":2},"quantity":5},
		{"product":{"_id":"","name":"Ghost","price":1},"quantity":1},
		{"product":{"_id":"p2","name":"Gel","price":3},"quantity":-1}
	]}`)

	c, err := decodeCart("cart-9", data)
	require.NoError(t, err)

	assert.Equal(t, "cart-9", c.ID)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestEncodeDecode_PreservesOrder(t *testing.T) {
	original := &domain.Cart{
		ID: "cart-1",
		Items: []domain.LineItem{
			{Product: domain.Product{ID: "z", Price: 1}, Quantity: 1},
			{Product: domain.Product{ID: "a", Price: 2}, Quantity: 4},
		},
	}

	data, err := encodeCart(original)
	require.NoError(t, err)
	got, err := decodeCart("cart-1", data)
	require.NoError(t, err)

	assert.Equal(t, original.Items, got.Items)
}
