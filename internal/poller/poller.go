package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/order"
	"github.com/fjod/go_cart/storefront/internal/session"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// ServerCart removes lines from the upstream cart of a user.
type ServerCart interface {
	RemoveFromCart(ctx context.Context, userID string, productID domain.ProductID) (domain.Cart, error)
}

// CartCleaner empties the cart of the session an order was placed in. With
// a ServerCart it also removes the purchased lines upstream.
type CartCleaner struct {
	storage session.Storage
	server  ServerCart
	log     zerolog.Logger
}

func NewCartCleaner(storage session.Storage, server ServerCart, log zerolog.Logger) *CartCleaner {
	return &CartCleaner{storage: storage, server: server, log: log.With().Str("component", "cart_cleaner").Logger()}
}

// Handle clears the cart for an order.confirmed event and ignores the rest.
func (c *CartCleaner) Handle(ctx context.Context, event order.Event) error {
	if event.Type != order.EventOrderConfirmed {
		return nil
	}
	if event.SessionID == "" {
		return errors.New("order event without session id")
	}
	if err := c.storage.Delete(ctx, event.SessionID, session.KeyCart); err != nil {
		return fmt.Errorf("clear cart for session %s: %w", event.SessionID, err)
	}
	log := c.log.With().Str("session_id", event.SessionID).Str("order_id", event.OrderID).Logger()
	log.Info().Msg("cart cleared after order")

	if c.server == nil || event.UserID == "" {
		return nil
	}
	var errs []error
	for _, item := range event.Items {
		_, err := c.server.RemoveFromCart(ctx, event.UserID, item.ProductID)
		// Already gone upstream.
		if err != nil && !api.IsStatus(err, http.StatusNotFound) {
			errs = append(errs, fmt.Errorf("remove %s from server cart: %w", item.ProductID, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	log.Info().Str("user_id", event.UserID).Int("lines", len(event.Items)).Msg("server cart cleared after order")
	return nil
}

// Poller consumes order events from Kafka and hands them to the cleaner.
type Poller struct {
	reader  messageReader
	cleaner *CartCleaner
	log     zerolog.Logger
}

func NewPoller(cleaner *CartCleaner, topic string, log zerolog.Logger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  "storefront-cart-cleaner",
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{reader: reader, cleaner: cleaner, log: log.With().Str("component", "poller").Logger()}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.getMessageAndEmptyCart(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Error().Err(err).Msg("error closing reader")
	}
}

func (p *Poller) getMessageAndEmptyCart(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		p.log.Error().Err(err).Msg("error reading message")
		return
	}

	var event order.Event
	if err := json.Unmarshal(m.Value, &event); err != nil {
		p.log.Error().Err(err).Int64("offset", m.Offset).Msg("error parsing message")
		return
	}

	if err := p.cleaner.Handle(ctx, event); err != nil {
		p.log.Error().Err(err).Int64("offset", m.Offset).Msg("failed to handle order event")
	}
}
