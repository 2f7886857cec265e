package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(id string, price int64, qty int) CartLineItem {
	return CartLineItem{ProductID: ProductID(id), ProductName: "p" + id, UnitPrice: decimal.NewFromInt(price), Quantity: qty}
}

func TestWithAdded_NewProductAppends(t *testing.T) {
	cart := Cart{line("1", 5, 1)}

	out := cart.WithAdded(line("2", 3, 4))

	require.Len(t, out, 2)
	assert.Equal(t, ProductID("2"), out[1].ProductID)
	assert.Equal(t, 4, out[1].Quantity)
	assert.Len(t, cart, 1, "receiver must not be modified")
}

func TestWithAdded_ExistingProductIncrements(t *testing.T) {
	cart := Cart{line("1", 5, 1), line("2", 3, 1)}

	out := cart.WithAdded(line("1", 5, 2))

	require.Len(t, out, 2)
	assert.Equal(t, 3, out[0].Quantity)
	assert.Equal(t, 1, cart[0].Quantity)
}

func TestWithout(t *testing.T) {
	cart := Cart{line("1", 5, 1), line("2", 3, 1)}

	out := cart.Without("1")

	require.Len(t, out, 1)
	assert.Equal(t, ProductID("2"), out[0].ProductID)
	assert.Empty(t, Cart{}.Without("1"))
}

func TestSubtotal(t *testing.T) {
	cart := Cart{line("1", 5, 2), line("2", 3, 1)}
	assert.Equal(t, "13.00", cart.Subtotal().StringFixed(2))
}

func TestEqual_ComparesPricesNumerically(t *testing.T) {
	a := Cart{line("1", 5, 2)}
	b := Cart{a[0]}
	b[0].UnitPrice = decimal.RequireFromString("5.000")

	assert.True(t, a.Equal(b))

	b[0].Quantity = 3
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(Cart{}))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cart    Cart
		wantErr error
	}{
		{"empty", Cart{}, nil},
		{"valid", Cart{line("1", 5, 1), line("2", 0, 3)}, nil},
		{"missing id", Cart{line("", 5, 1)}, ErrInvalidLineItem},
		{"zero quantity", Cart{line("1", 5, 0)}, ErrInvalidQuantity},
		{"negative price", Cart{line("1", -1, 1)}, ErrInvalidLineItem},
		{"duplicate", Cart{line("1", 5, 1), line("1", 5, 2)}, ErrDuplicateProduct},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cart.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProductID_DecodesNumbersAndStrings(t *testing.T) {
	var p struct {
		A ProductID `json:"a"`
		B ProductID `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 42, "b": "abc"}`), &p))
	assert.Equal(t, ProductID("42"), p.A)
	assert.Equal(t, ProductID("abc"), p.B)

	assert.Error(t, json.Unmarshal([]byte(`{"a": true}`), &p))
}

func TestCartLineItem_PriceEncodesAsNumber(t *testing.T) {
	data, err := json.Marshal(line("1", 5, 2))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price":5`)
}
