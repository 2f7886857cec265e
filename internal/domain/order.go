package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the confirmed purchase. Its id is the payment provider's intent id.
type Order struct {
	ID          string          `json:"id"`
	TotalAmount decimal.Decimal `json:"total"`
	BuyerEmail  string          `json:"email"`
	LineItems   Cart            `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
}
