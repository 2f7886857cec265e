package domain

import "github.com/shopspring/decimal"

type AdminUser struct {
	ID      string `json:"id,omitempty"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isadmin"`
}

// SalesFigures is the upstream aggregate behind GET /sales.
type SalesFigures struct {
	SalesCount int             `json:"sales_count"`
	Total      decimal.Decimal `json:"total"`
	TotalBuyer int             `json:"total_buyer"`
}

// AdminOrder is one row of GET /orders.
type AdminOrder struct {
	ID            string          `json:"id,omitempty"`
	ProductID     ProductID       `json:"product_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentStatus string          `json:"payment_status"`
	Email         string          `json:"email,omitempty"`
}

type ProductSales struct {
	Product
	TotalSales decimal.Decimal `json:"totalSales"`
}
