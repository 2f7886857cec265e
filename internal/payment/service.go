package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
)

// Upstream is the part of the store API used to take a payment.
type Upstream interface {
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, methodType string) (string, error)
	RecordPayment(ctx context.Context, req api.RecordPaymentRequest) (json.RawMessage, error)
}

// Provider confirms a payment intent with the external payment collaborator
// and returns the confirmed intent id.
type Provider interface {
	ConfirmCardPayment(ctx context.Context, clientSecret string, card Card) (string, error)
}

type HandoffReader interface {
	Handoff(ctx context.Context, s *session.Session) (*domain.CheckoutHandoff, error)
}

type OrderConfirmer interface {
	Confirm(ctx context.Context, s *session.Session, order domain.Order) (*domain.Order, error)
}

type Service struct {
	upstream     Upstream
	provider     Provider
	handoffs     HandoffReader
	orders       OrderConfirmer
	maxProofSize int64
	log          zerolog.Logger
	now          func() time.Time
}

func NewService(upstream Upstream, provider Provider, handoffs HandoffReader, orders OrderConfirmer, maxProofSize int64, log zerolog.Logger) *Service {
	return &Service{
		upstream:     upstream,
		provider:     provider,
		handoffs:     handoffs,
		orders:       orders,
		maxProofSize: maxProofSize,
		log:          log.With().Str("component", "payment").Logger(),
		now:          time.Now,
	}
}

// Attempt returns the session's current payment attempt.
func (s *Service) Attempt(ctx context.Context, sess *session.Session) (*Attempt, error) {
	var a Attempt
	if err := sess.GetJSON(ctx, session.KeyPayment, &a); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrNoAttempt
		}
		return nil, err
	}
	return &a, nil
}

func (s *Service) save(ctx context.Context, sess *session.Session, a *Attempt) error {
	a.UpdatedAt = s.now().UTC()
	if err := sess.SetJSON(ctx, session.KeyPayment, a); err != nil {
		return fmt.Errorf("store payment attempt: %w", err)
	}
	return nil
}

// SelectMethod starts a payment attempt for the current checkout and moves
// it to the first step of the chosen branch. An earlier attempt is replaced
// unless the provider already confirmed a charge for it.
func (s *Service) SelectMethod(ctx context.Context, sess *session.Session, method Method) (*Attempt, error) {
	if !method.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	handoff, err := s.handoffs.Handoff(ctx, sess)
	if err != nil {
		return nil, err
	}

	prev, err := s.Attempt(ctx, sess)
	switch {
	case errors.Is(err, ErrNoAttempt):
	case err != nil:
		return nil, err
	case !prev.restartable():
		return nil, ErrPaymentInProgress
	}

	a := &Attempt{
		Method: method,
		Status: domain.PaymentSelectingMethod,
		Total:  handoff.Total,
	}
	next := domain.PaymentAwaitingIntent
	if method == MethodBankTransfer {
		next = domain.PaymentAwaitingTransfer
	}
	if err := a.moveTo(next); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess, a); err != nil {
		return nil, err
	}

	logger.Ctx(ctx, &s.log).Info().
		Str("session_id", sess.ID()).
		Str("method", string(method)).
		Str("status", a.Status.String()).
		Msg("payment method selected")
	return a, nil
}

type PayOnlineRequest struct {
	PaymentMethodType string `json:"paymentMethodType"`
	Card              Card   `json:"card"`
}

// PayOnline drives the online branch from its current step to Confirmed:
// create the intent, confirm it with the provider, record it upstream, then
// confirm the order. A failing step leaves the attempt Failed at that step;
// calling again resumes there with whatever was already obtained.
func (s *Service) PayOnline(ctx context.Context, sess *session.Session, req PayOnlineRequest) (*domain.Order, error) {
	methodType := strings.TrimSpace(req.PaymentMethodType)
	if methodType == "" {
		methodType = CardPaymentType
	}
	if unsupportedTypes[methodType] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPaymentMethod, methodType)
	}
	if methodType != CardPaymentType {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, methodType)
	}

	a, err := s.Attempt(ctx, sess)
	if err != nil {
		return nil, err
	}
	if a.Method != MethodPayOnline {
		return nil, ErrWrongMethod
	}
	if a.Status == domain.PaymentConfirmed {
		return nil, ErrAlreadyConfirmed
	}

	handoff, err := s.handoffs.Handoff(ctx, sess)
	if err != nil {
		return nil, err
	}

	log := logger.Ctx(ctx, &s.log).With().Str("session_id", sess.ID()).Logger()
	if a.ClientSecret != "" && !a.Total.Equal(handoff.Total) {
		// The intent was created for a checkout that has since been re-submitted.
		if a.IntentID != "" {
			return nil, fmt.Errorf("%w: charged %s, checkout now %s", ErrCheckoutChanged, a.Total, handoff.Total)
		}
		log.Info().Str("old_total", a.Total.String()).Str("new_total", handoff.Total.String()).
			Msg("checkout total changed, dropping payment intent")
		a.rewind(handoff.Total)
	}

	step := a.resumeStep()
	if step == domain.PaymentAwaitingIntent || step == domain.PaymentConfirmingPayment {
		if err := req.Card.Validate(); err != nil {
			return nil, err
		}
	}

	if a.Status == domain.PaymentFailed {
		log.Info().Str("step", step.String()).Msg("resuming failed payment")
		if err := a.moveTo(step); err != nil {
			return nil, err
		}
	}
	a.PaymentMethodType = methodType

	for {
		var stepErr error
		switch a.Status {
		case domain.PaymentAwaitingIntent:
			stepErr = s.createIntent(ctx, a, handoff)
		case domain.PaymentConfirmingPayment:
			stepErr = s.confirmIntent(ctx, a, req.Card)
		case domain.PaymentRecordingPayment:
			order, err := s.record(ctx, sess, a, handoff)
			if err == nil {
				log.Info().Str("order_id", order.ID).Msg("payment confirmed")
				return order, nil
			}
			stepErr = err
		default:
			return nil, fmt.Errorf("%w: cannot pay from %s", ErrIllegalTransition, a.Status)
		}

		if stepErr != nil {
			failed := a.Status
			a.fail(failed, stepErr)
			log.Error().Err(stepErr).Str("step", failed.String()).Msg("payment step failed")
			if err := s.save(context.WithoutCancel(ctx), sess, a); err != nil {
				return nil, errors.Join(stepErr, err)
			}
			return nil, stepErr
		}
		if err := s.save(ctx, sess, a); err != nil {
			return nil, err
		}
	}
}

func (s *Service) createIntent(ctx context.Context, a *Attempt, handoff *domain.CheckoutHandoff) error {
	secret, err := s.upstream.CreatePaymentIntent(ctx, handoff.Total, a.PaymentMethodType)
	if err != nil {
		return fmt.Errorf("create payment intent: %w", err)
	}
	a.ClientSecret = secret
	a.Total = handoff.Total
	return a.moveTo(domain.PaymentConfirmingPayment)
}

func (s *Service) confirmIntent(ctx context.Context, a *Attempt, card Card) error {
	intentID, err := s.provider.ConfirmCardPayment(ctx, a.ClientSecret, card)
	if err != nil {
		return fmt.Errorf("confirm payment: %w", err)
	}
	a.IntentID = intentID
	return a.moveTo(domain.PaymentRecordingPayment)
}

// record posts the payment upstream once and confirms the order. A stored
// confirmation means the upstream already has it, so only the order step
// is retried.
func (s *Service) record(ctx context.Context, sess *session.Session, a *Attempt, handoff *domain.CheckoutHandoff) (*domain.Order, error) {
	if a.Confirmation == nil {
		confirmation, err := s.upstream.RecordPayment(ctx, api.RecordPaymentRequest{
			CheckoutForm:    handoff.Form,
			PaymentIntentID: a.IntentID,
			Cart:            handoff.Cart,
		})
		if err != nil {
			return nil, fmt.Errorf("record payment: %w", err)
		}
		if len(confirmation) == 0 {
			confirmation = json.RawMessage(`{}`)
		}
		a.Confirmation = confirmation
	}

	order, err := s.orders.Confirm(ctx, sess, domain.Order{
		ID:          a.IntentID,
		TotalAmount: handoff.Total,
		BuyerEmail:  handoff.Form.Email,
		LineItems:   handoff.Cart.Clone(),
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("confirm order: %w", err)
	}

	if err := a.moveTo(domain.PaymentConfirmed); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess, a); err != nil {
		return nil, err
	}
	return order, nil
}
