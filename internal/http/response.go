package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fjod/go_cart/storefront/internal/admin"
	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/order"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/session"
)

// NoticeDismissAfter is how long, in milliseconds, a client should show a
// notice before dismissing it.
const NoticeDismissAfter = 5000

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Notice is a transient confirmation message for the client to display.
type Notice struct {
	Message        string `json:"message"`
	DismissAfterMs int    `json:"dismiss_after_ms"`
}

func newNotice(message string) *Notice {
	return &Notice{Message: message, DismissAfterMs: NoticeDismissAfter}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}

func respondErrorDetails(w http.ResponseWriter, status int, code, message, details string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// handleError maps service errors to HTTP status codes in one place.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *checkout.ValidationError
		declined   *payment.DeclinedError
		upstream   *api.StatusError
		transport  *url.Error
	)

	switch {
	case errors.As(err, &validation):
		respondErrorDetails(w, http.StatusBadRequest, "validation_failed", "please fill in all required fields", strings.Join(validation.Missing, ","))
	case errors.Is(err, domain.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, domain.ErrInvalidLineItem),
		errors.Is(err, payment.ErrUnknownMethod),
		errors.Is(err, payment.ErrInvalidCard),
		errors.Is(err, admin.ErrMissingCredentials),
		errors.Is(err, admin.ErrMissingFields),
		errors.Is(err, admin.ErrImageRequired):
		respondError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, payment.ErrUnsupportedPaymentMethod):
		respondError(w, http.StatusBadRequest, "unsupported_payment_method", err.Error())
	case errors.As(err, &declined):
		respondErrorDetails(w, http.StatusPaymentRequired, "payment_declined", declined.Error(), declined.Code)
	case errors.Is(err, admin.ErrNotAdmin):
		respondError(w, http.StatusForbidden, "permission_denied", "you do not have permission to access the admin page")
	case errors.Is(err, cart.ErrItemNotFound), errors.Is(err, order.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrNoCheckout):
		respondError(w, http.StatusConflict, "no_checkout", err.Error())
	case errors.Is(err, payment.ErrNoAttempt),
		errors.Is(err, payment.ErrWrongMethod),
		errors.Is(err, payment.ErrIllegalTransition),
		errors.Is(err, payment.ErrPaymentInProgress),
		errors.Is(err, payment.ErrCheckoutChanged),
		errors.Is(err, payment.ErrAlreadyConfirmed):
		respondError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, payment.ErrProofTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, "proof_too_large", "file size must be 2MB or less")
	case errors.Is(err, payment.ErrProofType):
		respondError(w, http.StatusUnsupportedMediaType, "proof_type", err.Error())
	case errors.Is(err, session.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, "unsupported_environment", "session storage is unavailable")
	case errors.Is(err, api.ErrCircuitOpen):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "store is temporarily unavailable")
	case errors.As(err, &upstream):
		if upstream.StatusCode >= http.StatusInternalServerError {
			respondErrorDetails(w, http.StatusBadGateway, "bad_gateway", "store request failed", upstream.Message)
			break
		}
		respondError(w, upstream.StatusCode, "upstream_rejected", upstream.Message)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	case errors.Is(err, api.ErrMissingClientSecret),
		errors.Is(err, api.ErrEmptyResponse),
		errors.Is(err, payment.ErrMalformedSecret),
		errors.Is(err, cart.ErrInvalidServerCart),
		errors.As(err, &transport):
		respondError(w, http.StatusBadGateway, "bad_gateway", err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("unhandled error")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	zerolog.Ctx(r.Context()).Debug().Err(err).Msg("request failed")
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
