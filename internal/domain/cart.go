package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrInvalidLineItem  = errors.New("invalid cart line item")
	ErrDuplicateProduct = errors.New("duplicate product in cart")
)

type CartLineItem struct {
	ProductID   ProductID       `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	ImageRef    string          `json:"img,omitempty"`
}

// Equal compares two lines by value; prices are compared numerically.
func (l CartLineItem) Equal(o CartLineItem) bool {
	return l.ProductID == o.ProductID &&
		l.ProductName == o.ProductName &&
		l.UnitPrice.Equal(o.UnitPrice) &&
		l.Quantity == o.Quantity &&
		l.ImageRef == o.ImageRef
}

// Subtotal is unit price times quantity.
func (l CartLineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the ordered sequence of line items, unique by product id.
type Cart []CartLineItem

func (c Cart) Clone() Cart {
	if c == nil {
		return Cart{}
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

func (c Cart) IsEmpty() bool {
	return len(c) == 0
}

// Index returns the position of the line for productID, or -1.
func (c Cart) Index(productID ProductID) int {
	for i, item := range c {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) Equal(o Cart) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if !c[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.Subtotal())
	}
	return total
}

// WithAdded merges item into a copy of c: an existing line for the same
// product gains item.Quantity units, otherwise the line is appended.
func (c Cart) WithAdded(item CartLineItem) Cart {
	out := c.Clone()
	if i := out.Index(item.ProductID); i >= 0 {
		out[i].Quantity += item.Quantity
		return out
	}
	return append(out, item)
}

// Without returns a copy of c with the line for productID dropped.
func (c Cart) Without(productID ProductID) Cart {
	out := make(Cart, 0, len(c))
	for _, item := range c {
		if item.ProductID != productID {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks the stored-cart schema: every line names a product, has a
// non-negative price and at least one unit, and no product appears twice.
func (c Cart) Validate() error {
	seen := make(map[ProductID]struct{}, len(c))
	for i, item := range c {
		if item.ProductID == "" {
			return fmt.Errorf("%w: line %d has no product id", ErrInvalidLineItem, i)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: line %d (%s)", ErrInvalidQuantity, i, item.ProductID)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: line %d (%s) has a negative price", ErrInvalidLineItem, i, item.ProductID)
		}
		if _, ok := seen[item.ProductID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateProduct, item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
	}
	return nil
}
