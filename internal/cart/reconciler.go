package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
)

var (
	ErrItemNotFound      = errors.New("item not found in cart")
	ErrInvalidServerCart = errors.New("server returned an invalid cart")
)

// Upstream is the part of the store API the reconciler talks to.
type Upstream interface {
	AddToCart(ctx context.Context, userID string, product domain.Product, quantity int) (domain.Cart, error)
	RemoveFromCart(ctx context.Context, userID string, productID domain.ProductID) (domain.Cart, error)
	Cart(ctx context.Context, userID string) (domain.Cart, error)
}

// Reconciler keeps the local cart and the server cart in step. Mutations
// are applied locally first, then sent upstream; the server answer replaces
// the local cart on success and the pre-mutation snapshot is restored on
// failure. Mutations and syncs for one user run one at a time.
type Reconciler struct {
	store    *Store
	upstream Upstream
	locks    *keyedMutex
	sfg      singleflight.Group
	log      zerolog.Logger
}

func NewReconciler(store *Store, upstream Upstream, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		upstream: upstream,
		locks:    newKeyedMutex(),
		log:      log.With().Str("component", "cart_reconciler").Logger(),
	}
}

// Add puts quantity units of product in the cart.
func (r *Reconciler) Add(ctx context.Context, s *session.Session, product domain.Product, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	if product.ID == "" {
		return nil, fmt.Errorf("%w: missing product id", domain.ErrInvalidLineItem)
	}

	return r.mutate(ctx, s, "add", product.ID,
		func(c domain.Cart) domain.Cart { return c.WithAdded(product.LineItem(quantity)) },
		func(ctx context.Context, userID string) (domain.Cart, error) {
			return r.upstream.AddToCart(ctx, userID, product, quantity)
		})
}

// Remove drops the line for productID.
func (r *Reconciler) Remove(ctx context.Context, s *session.Session, productID domain.ProductID) (domain.Cart, error) {
	return r.mutate(ctx, s, "remove", productID,
		func(c domain.Cart) domain.Cart { return c.Without(productID) },
		func(ctx context.Context, userID string) (domain.Cart, error) {
			return r.upstream.RemoveFromCart(ctx, userID, productID)
		})
}

func (r *Reconciler) mutate(
	ctx context.Context,
	s *session.Session,
	op string,
	productID domain.ProductID,
	apply func(domain.Cart) domain.Cart,
	send func(context.Context, string) (domain.Cart, error),
) (domain.Cart, error) {
	userID, err := s.UserID(ctx)
	if err != nil {
		return nil, err
	}
	unlock := r.locks.Lock(userID)
	defer unlock()

	before, err := r.store.Load(ctx, s)
	if err != nil {
		return nil, err
	}
	local := apply(before)
	if err := r.store.Save(ctx, s, local); err != nil {
		return nil, err
	}

	log := logger.Ctx(ctx, &r.log).With().
		Str("op", op).
		Str("user_id", userID).
		Str("product_id", productID.String()).
		Logger()

	server, err := send(ctx, userID)
	if err != nil {
		log.Error().Err(err).Msg("upstream cart update failed, rolling back")
		if rbErr := r.store.Save(context.WithoutCancel(ctx), s, before); rbErr != nil {
			log.Error().Err(rbErr).Msg("cart rollback failed")
			return nil, errors.Join(fmt.Errorf("%s cart item: %w", op, err), rbErr)
		}
		return before, fmt.Errorf("%s cart item: %w", op, err)
	}

	if server == nil {
		log.Warn().Msg("keeping local cart, server returned no cart")
		return local, nil
	}
	if server.Equal(local) {
		return local, nil
	}
	if err := server.Validate(); err != nil {
		log.Warn().Err(err).Msg("keeping local cart, server cart is invalid")
		return local, nil
	}
	if err := r.store.Save(ctx, s, server); err != nil {
		return nil, err
	}
	log.Debug().Msg("local cart replaced by server cart")
	return server.Clone(), nil
}

// Increase adds one unit to the line for productID. Local only.
func (r *Reconciler) Increase(ctx context.Context, s *session.Session, productID domain.ProductID) (domain.Cart, error) {
	return r.adjust(ctx, s, productID, 1)
}

// Decrease removes one unit from the line for productID, never going below
// one. Local only.
func (r *Reconciler) Decrease(ctx context.Context, s *session.Session, productID domain.ProductID) (domain.Cart, error) {
	return r.adjust(ctx, s, productID, -1)
}

func (r *Reconciler) adjust(ctx context.Context, s *session.Session, productID domain.ProductID, delta int) (domain.Cart, error) {
	userID, err := s.UserID(ctx)
	if err != nil {
		return nil, err
	}
	unlock := r.locks.Lock(userID)
	defer unlock()

	cart, err := r.store.Load(ctx, s)
	if err != nil {
		return nil, err
	}
	i := cart.Index(productID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, productID)
	}
	cart[i].Quantity = max(1, cart[i].Quantity+delta)

	if err := r.store.Save(ctx, s, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Sync replaces the local cart with the server's. Concurrent syncs for the
// same user share one upstream call, made under the user's lock so no
// mutation completes between the fetch and the save. A caller whose context
// ends stops waiting without cancelling the shared call. On failure the
// local cart is kept.
func (r *Reconciler) Sync(ctx context.Context, s *session.Session) (domain.Cart, error) {
	userID, err := s.UserID(ctx)
	if err != nil {
		return nil, err
	}

	ch := r.sfg.DoChan(userID, func() (interface{}, error) {
		return r.replaceWithServer(context.WithoutCancel(ctx), s, userID)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("sync cart: %w", ctx.Err())
	case res := <-ch:
		log := logger.Ctx(ctx, &r.log).With().Str("user_id", userID).Bool("shared", res.Shared).Logger()
		switch {
		case errors.Is(res.Err, ErrInvalidServerCart):
			log.Warn().Err(res.Err).Msg("rejecting invalid server cart")
			return nil, res.Err
		case res.Err != nil:
			log.Error().Err(res.Err).Msg("cart sync failed")
			return nil, res.Err
		}
		return res.Val.(domain.Cart).Clone(), nil
	}
}

func (r *Reconciler) replaceWithServer(ctx context.Context, s *session.Session, userID string) (domain.Cart, error) {
	unlock := r.locks.Lock(userID)
	defer unlock()

	server, err := r.upstream.Cart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("sync cart: %w", err)
	}
	if server == nil {
		return nil, fmt.Errorf("%w: no cart in response", ErrInvalidServerCart)
	}
	if err := server.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidServerCart, err)
	}
	if err := r.store.Save(ctx, s, server); err != nil {
		return nil, err
	}
	return server, nil
}

// Load returns the local cart without waiting on in-flight mutations.
func (r *Reconciler) Load(ctx context.Context, s *session.Session) (domain.Cart, error) {
	return r.store.Load(ctx, s)
}
