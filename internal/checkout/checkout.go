package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
)

var (
	ErrEmptyCart  = errors.New("cart is empty")
	ErrNoCheckout = errors.New("no checkout in progress")
)

// ValidationError lists the form fields that were left empty.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// Validate checks that every field is present and the shipping method is
// known. No format checks are made.
func Validate(form domain.CheckoutForm) error {
	fields := []struct {
		name  string
		value string
	}{
		{"firstName", form.FirstName},
		{"lastName", form.LastName},
		{"email", form.Email},
		{"phone", form.Phone},
		{"address", form.Address},
		{"country", form.Country},
		{"state", form.State},
		{"postcode", form.Postcode},
	}

	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if !form.ShippingMethod.IsValid() {
		missing = append(missing, "shippingMethod")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// ComputeTotal is the cart subtotal plus the flat shipping fee.
func ComputeTotal(cart domain.Cart, method domain.ShippingMethod) decimal.Decimal {
	return cart.Subtotal().Add(method.Fee())
}

type CartLoader interface {
	Load(ctx context.Context, s *session.Session) (domain.Cart, error)
}

// Service turns a submitted form into the handoff the payment step reads.
// Nothing is sent upstream here.
type Service struct {
	carts CartLoader
	log   zerolog.Logger
	now   func() time.Time
}

func NewService(carts CartLoader, log zerolog.Logger) *Service {
	return &Service{
		carts: carts,
		log:   log.With().Str("component", "checkout").Logger(),
		now:   time.Now,
	}
}

func (s *Service) Submit(ctx context.Context, sess *session.Session, form domain.CheckoutForm) (*domain.CheckoutHandoff, error) {
	if err := Validate(form); err != nil {
		return nil, err
	}

	cart, err := s.carts.Load(ctx, sess)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	handoff := &domain.CheckoutHandoff{
		Total:       ComputeTotal(cart, form.ShippingMethod),
		Cart:        cart.Clone(),
		Form:        form,
		SubmittedAt: s.now().UTC(),
	}
	if err := sess.SetJSON(ctx, session.KeyCheckout, handoff); err != nil {
		return nil, fmt.Errorf("store checkout: %w", err)
	}

	logger.Ctx(ctx, &s.log).Info().
		Str("session_id", sess.ID()).
		Str("total", handoff.Total.StringFixed(2)).
		Str("shipping_method", form.ShippingMethod.String()).
		Int("lines", len(cart)).
		Msg("checkout submitted")
	return handoff, nil
}

// Handoff returns the stored checkout or ErrNoCheckout.
func (s *Service) Handoff(ctx context.Context, sess *session.Session) (*domain.CheckoutHandoff, error) {
	var handoff domain.CheckoutHandoff
	if err := sess.GetJSON(ctx, session.KeyCheckout, &handoff); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrNoCheckout
		}
		return nil, err
	}
	return &handoff, nil
}

// Clear forgets the handoff once the order it fed has been confirmed.
func (s *Service) Clear(ctx context.Context, sess *session.Session) error {
	return sess.Delete(ctx, session.KeyCheckout)
}
