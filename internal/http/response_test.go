package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/admin"
	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/order"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/session"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &checkout.ValidationError{Missing: []string{"email"}}, http.StatusBadRequest, "validation_failed"},
		{"unsupported payment", fmt.Errorf("pay: %w", payment.ErrUnsupportedPaymentMethod), http.StatusBadRequest, "unsupported_payment_method"},
		{"declined", &payment.DeclinedError{Code: "expired_card"}, http.StatusPaymentRequired, "payment_declined"},
		{"not admin", admin.ErrNotAdmin, http.StatusForbidden, "permission_denied"},
		{"no order", order.ErrOrderNotFound, http.StatusNotFound, "not_found"},
		{"no checkout", checkout.ErrNoCheckout, http.StatusConflict, "no_checkout"},
		{"already confirmed", payment.ErrAlreadyConfirmed, http.StatusConflict, "invalid_state"},
		{"checkout changed", fmt.Errorf("pay: %w", payment.ErrCheckoutChanged), http.StatusConflict, "invalid_state"},
		{"proof too large", payment.ErrProofTooLarge, http.StatusRequestEntityTooLarge, "proof_too_large"},
		{"storage down", fmt.Errorf("load cart: %w", session.ErrUnavailable), http.StatusServiceUnavailable, "unsupported_environment"},
		{"breaker open", api.ErrCircuitOpen, http.StatusServiceUnavailable, "service_unavailable"},
		{"upstream 5xx", &api.StatusError{StatusCode: http.StatusBadGateway, Message: "down"}, http.StatusBadGateway, "bad_gateway"},
		{"upstream 4xx", &api.StatusError{StatusCode: http.StatusUnauthorized, Message: "Unauthorized"}, http.StatusUnauthorized, "upstream_rejected"},
		{"empty upstream body", fmt.Errorf("GET /u1: %w", api.ErrEmptyResponse), http.StatusBadGateway, "bad_gateway"},
		{"timeout", fmt.Errorf("add: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "timeout"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handleError(recorder, httptest.NewRequest("GET", "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}
