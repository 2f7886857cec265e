package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
)

type CartService interface {
	Load(ctx context.Context, s *session.Session) (domain.Cart, error)
	Add(ctx context.Context, s *session.Session, product domain.Product, quantity int) (domain.Cart, error)
	Remove(ctx context.Context, s *session.Session, productID domain.ProductID) (domain.Cart, error)
	Increase(ctx context.Context, s *session.Session, productID domain.ProductID) (domain.Cart, error)
	Decrease(ctx context.Context, s *session.Session, productID domain.ProductID) (domain.Cart, error)
	Sync(ctx context.Context, s *session.Session) (domain.Cart, error)
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	Product  domain.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

type CartResponseDTO struct {
	Items    domain.Cart     `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Notice   *Notice         `json:"notice,omitempty"`
}

func cartResponse(c domain.Cart, notice *Notice) CartResponseDTO {
	if c == nil {
		c = domain.Cart{}
	}
	return CartResponseDTO{Items: c, Subtotal: c.Subtotal(), Notice: notice}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusInternalServerError, "session_error", "missing session")
		return
	}

	c, err := h.carts.Load(ctx, sess)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(c, nil))
}

// POST /api/v1/cart/sync
func (h *CartHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusInternalServerError, "session_error", "missing session")
		return
	}

	c, err := h.carts.Sync(ctx, sess)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(c, nil))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusInternalServerError, "session_error", "missing session")
		return
	}

	// Parse request body
	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// Validate request
	if req.Product.ID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product.id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	c, err := h.carts.Add(ctx, sess, req.Product, req.Quantity)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(c, newNotice(req.Product.Name+" has been added to the cart.")))
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusInternalServerError, "session_error", "missing session")
		return
	}

	productID := domain.ProductID(chi.URLParam(r, "product_id"))
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	c, err := h.carts.Remove(ctx, sess, productID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(c, newNotice("Item removed from the cart.")))
}

// POST /api/v1/cart/items/{product_id}/increase
func (h *CartHandler) Increase(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.carts.Increase)
}

// POST /api/v1/cart/items/{product_id}/decrease
func (h *CartHandler) Decrease(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.carts.Decrease)
}

func (h *CartHandler) adjust(w http.ResponseWriter, r *http.Request, fn func(context.Context, *session.Session, domain.ProductID) (domain.Cart, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusInternalServerError, "session_error", "missing session")
		return
	}

	productID := domain.ProductID(chi.URLParam(r, "product_id"))
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	c, err := fn(ctx, sess, productID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(c, nil))
}
