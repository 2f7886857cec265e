package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
)

// Store persists the local cart in session-scoped storage under the cart key.
type Store struct {
	log zerolog.Logger
}

func NewStore(log zerolog.Logger) *Store {
	return &Store{log: log.With().Str("component", "cart_store").Logger()}
}

// Load returns the session's cart. A missing entry is an empty cart. A
// stored value that does not decode or fails validation is logged and
// treated as empty; only storage failures are returned.
func (st *Store) Load(ctx context.Context, s *session.Session) (domain.Cart, error) {
	var cart domain.Cart
	err := s.GetJSON(ctx, session.KeyCart, &cart)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrNotFound):
		return domain.Cart{}, nil
	case errors.Is(err, session.ErrUnavailable), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("load cart: %w", err)
	default:
		logger.Ctx(ctx, &st.log).Warn().Err(err).Str("session_id", s.ID()).Msg("discarding undecodable stored cart")
		return domain.Cart{}, nil
	}

	if err := cart.Validate(); err != nil {
		logger.Ctx(ctx, &st.log).Warn().Err(err).Str("session_id", s.ID()).Msg("discarding invalid stored cart")
		return domain.Cart{}, nil
	}
	return cart.Clone(), nil
}

// Save stores cart. An empty cart removes the entry instead of storing [].
func (st *Store) Save(ctx context.Context, s *session.Session, cart domain.Cart) error {
	if cart.IsEmpty() {
		if err := s.Delete(ctx, session.KeyCart); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	}
	if err := s.SetJSON(ctx, session.KeyCart, cart); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
