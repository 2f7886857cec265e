package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidOrder  = errors.New("invalid order")
)

const EventOrderConfirmed = "order.confirmed"

// Event announces a confirmed order. Consumers key on SessionID to find the
// browser session it belongs to.
type Event struct {
	Type        string          `json:"type"`
	SessionID   string          `json:"session_id"`
	UserID      string          `json:"user_id,omitempty"`
	OrderID     string          `json:"order_id"`
	Email       string          `json:"email"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       domain.Cart     `json:"items"`
	ConfirmedAt time.Time       `json:"confirmed_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// PublisherFunc adapts a plain function to Publisher.
type PublisherFunc func(ctx context.Context, event Event) error

func (f PublisherFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}

type CheckoutClearer interface {
	Clear(ctx context.Context, s *session.Session) error
}

// Service stores the confirmed order in the session and tells the rest of
// the system about it.
type Service struct {
	checkouts CheckoutClearer
	publisher Publisher
	log       zerolog.Logger
}

func NewService(checkouts CheckoutClearer, publisher Publisher, log zerolog.Logger) *Service {
	return &Service{
		checkouts: checkouts,
		publisher: publisher,
		log:       log.With().Str("component", "order").Logger(),
	}
}

// Confirm stores order, clears the checkout handoff and publishes
// order.confirmed. Only the store step can fail the call; an order already
// stored under the same id is returned as is.
func (s *Service) Confirm(ctx context.Context, sess *session.Session, order domain.Order) (*domain.Order, error) {
	if order.ID == "" || order.BuyerEmail == "" {
		return nil, fmt.Errorf("%w: id and buyer email are required", ErrInvalidOrder)
	}

	existing, err := s.Get(ctx, sess)
	switch {
	case err == nil && existing.ID == order.ID:
		return existing, nil
	case err != nil && !errors.Is(err, ErrOrderNotFound):
		return nil, err
	}

	if err := sess.SetJSON(ctx, session.KeyOrder, order); err != nil {
		return nil, fmt.Errorf("store order: %w", err)
	}

	log := logger.Ctx(ctx, &s.log).With().Str("session_id", sess.ID()).Str("order_id", order.ID).Logger()
	if err := s.checkouts.Clear(ctx, sess); err != nil {
		log.Warn().Err(err).Msg("failed to clear checkout handoff")
	}

	userID, err := sess.UserID(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("order event sent without user id")
	}
	event := Event{
		Type:        EventOrderConfirmed,
		SessionID:   sess.ID(),
		UserID:      userID,
		OrderID:     order.ID,
		Email:       order.BuyerEmail,
		TotalAmount: order.TotalAmount,
		Items:       order.LineItems,
		ConfirmedAt: order.CreatedAt,
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		log.Error().Err(err).Msg("failed to publish order confirmed event")
	}

	log.Info().Str("total", order.TotalAmount.StringFixed(2)).Msg("order confirmed")
	return &order, nil
}

// Get returns the order confirmed in this session.
func (s *Service) Get(ctx context.Context, sess *session.Session) (*domain.Order, error) {
	var order domain.Order
	if err := sess.GetJSON(ctx, session.KeyOrder, &order); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}
