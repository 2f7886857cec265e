package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// ProductsPerPage is the catalog page size.
const ProductsPerPage = 10

type ProductLister interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

type ProductHandler struct {
	products ProductLister
	timeout  time.Duration
}

func NewProductHandler(products ProductLister, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		products: products,
		timeout:  timeout,
	}
}

type ProductsResponse struct {
	Products   []domain.Product `json:"products"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	Total      int              `json:"total"`
}

// GET /api/v1/products?q=&page=
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			respondError(w, http.StatusBadRequest, "invalid_page", "page must be a positive integer")
			return
		}
		page = p
	}

	all, err := h.products.Products(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}

	filtered := filterByName(all, r.URL.Query().Get("q"))
	totalPages := (len(filtered) + ProductsPerPage - 1) / ProductsPerPage
	start := min((page-1)*ProductsPerPage, len(filtered))
	end := min(start+ProductsPerPage, len(filtered))

	respondJSON(w, http.StatusOK, &ProductsResponse{
		Products:   filtered[start:end],
		Page:       page,
		TotalPages: totalPages,
		Total:      len(filtered),
	})
}

// filterByName keeps products whose name contains q, ignoring case.
func filterByName(products []domain.Product, q string) []domain.Product {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if q == "" || strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out
}
