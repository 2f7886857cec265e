package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_cart/storefront/internal/session"
)

type Handlers struct {
	Products *ProductHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Payment  *PaymentHandler
	Order    *OrderHandler
	Admin    *AdminHandler
}

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

// NewRouter mounts every storefront route behind the shared middleware
// stack and wraps the result in an OpenTelemetry server handler.
func NewRouter(cfg RouterConfig, log zerolog.Logger, cookies *session.CookieManager, hs Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(cookies))

		// Multipart uploads set their own, larger limits.
		limited := r.With(middleware.RequestSize(cfg.MaxRequestBodySize))
		adminOnly := r.With(AdminOnly(cookies))

		limited.Get("/products", hs.Products.Get)

		limited.Get("/cart", hs.Cart.GetCart)
		limited.Post("/cart/sync", hs.Cart.Sync)
		limited.Post("/cart/items", hs.Cart.AddItem)
		limited.Delete("/cart/items/{product_id}", hs.Cart.RemoveItem)
		limited.Post("/cart/items/{product_id}/increase", hs.Cart.Increase)
		limited.Post("/cart/items/{product_id}/decrease", hs.Cart.Decrease)

		limited.Post("/checkout", hs.Checkout.Submit)
		limited.Get("/checkout", hs.Checkout.Get)

		limited.Post("/payment/method", hs.Payment.SelectMethod)
		limited.Post("/payment/card", hs.Payment.PayCard)
		limited.Get("/payment/bank-transfer", hs.Payment.BankTransfer)
		r.Post("/payment/bank-transfer/proof", hs.Payment.AttachProof)

		limited.Get("/order", hs.Order.Get)

		limited.Post("/admin/login", hs.Admin.Login)
		limited.Post("/admin/logout", hs.Admin.Logout)
		adminOnly.Get("/admin/dashboard", hs.Admin.Dashboard)
		adminOnly.Post("/admin/products", hs.Admin.CreateProduct)
		adminOnly.Put("/admin/products/{id}", hs.Admin.UpdateProduct)
		adminOnly.Delete("/admin/products/{id}", hs.Admin.DeleteProduct)
	})

	return otelhttp.NewHandler(r, "storefront")
}
