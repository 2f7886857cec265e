package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

func init() {
	// The upstream API speaks plain JSON numbers for prices.
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductID is the catalog's opaque product identifier. The upstream API
// has served both numeric and string ids, so both decode into the same value.
type ProductID string

func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id must be a string or number: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

func (id ProductID) String() string {
	return string(id)
}

type Product struct {
	ID    ProductID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Img   string          `json:"img"`
}

// LineItem builds the cart line for quantity units of p.
func (p Product) LineItem(quantity int) CartLineItem {
	return CartLineItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		UnitPrice:   p.Price,
		Quantity:    quantity,
		ImageRef:    p.Img,
	}
}
