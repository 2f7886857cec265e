package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
)

type OrderReader interface {
	Get(ctx context.Context, s *session.Session) (*domain.Order, error)
}

type OrderHandler struct {
	orders  OrderReader
	timeout time.Duration
}

func NewOrderHandler(orders OrderReader, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		timeout: timeout,
	}
}

// GET /api/v1/order
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusInternalServerError, "session_error", "missing session")
		return
	}

	o, err := h.orders.Get(ctx, sess)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, o)
}
