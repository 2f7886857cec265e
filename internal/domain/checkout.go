package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ShippingMethod string

const (
	ShippingStandard       ShippingMethod = "standard"
	ShippingExpress        ShippingMethod = "express"
	ShippingCashOnDelivery ShippingMethod = "cash-on-delivery"
)

var shippingFees = map[ShippingMethod]decimal.Decimal{
	ShippingStandard:       decimal.NewFromInt(10),
	ShippingExpress:        decimal.NewFromInt(20),
	ShippingCashOnDelivery: decimal.Zero,
}

func (m ShippingMethod) IsValid() bool {
	_, ok := shippingFees[m]
	return ok
}

// Fee is the flat shipping charge; unknown methods cost nothing.
func (m ShippingMethod) Fee() decimal.Decimal {
	if fee, ok := shippingFees[m]; ok {
		return fee
	}
	return decimal.Zero
}

func (m ShippingMethod) String() string {
	return string(m)
}

// CheckoutForm carries the shipping and contact fields collected at checkout.
// JSON names follow the upstream record-payment contract.
type CheckoutForm struct {
	FirstName      string         `json:"firstname"`
	LastName       string         `json:"lastname"`
	Email          string         `json:"email"`
	Phone          string         `json:"number"`
	Address        string         `json:"address"`
	Country        string         `json:"country"`
	State          string         `json:"state"`
	Postcode       string         `json:"postcode"`
	ShippingMethod ShippingMethod `json:"shippingMethod"`
}

// CheckoutHandoff is what checkout passes on to the payment step.
type CheckoutHandoff struct {
	Total       decimal.Decimal `json:"total"`
	Cart        Cart            `json:"cart"`
	Form        CheckoutForm    `json:"form"`
	SubmittedAt time.Time       `json:"submitted_at"`
}
