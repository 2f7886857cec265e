package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
)

type UpstreamMock struct {
	mu        sync.Mutex
	addFn     func(ctx context.Context, userID string, product domain.Product, quantity int) (domain.Cart, error)
	removeFn  func(ctx context.Context, userID string, productID domain.ProductID) (domain.Cart, error)
	cartFn    func(ctx context.Context, userID string) (domain.Cart, error)
	cartCalls int
}

func (m *UpstreamMock) AddToCart(ctx context.Context, userID string, product domain.Product, quantity int) (domain.Cart, error) {
	return m.addFn(ctx, userID, product, quantity)
}

func (m *UpstreamMock) RemoveFromCart(ctx context.Context, userID string, productID domain.ProductID) (domain.Cart, error) {
	return m.removeFn(ctx, userID, productID)
}

func (m *UpstreamMock) Cart(ctx context.Context, userID string) (domain.Cart, error) {
	m.mu.Lock()
	m.cartCalls++
	m.mu.Unlock()
	return m.cartFn(ctx, userID)
}

func newTestSession(t *testing.T) *session.Session {
	storage := session.NewMemoryStorage(time.Hour)
	t.Cleanup(func() { storage.Close() })
	return session.New("sid-test", storage)
}

func newTestReconciler(upstream Upstream) *Reconciler {
	return NewReconciler(NewStore(zerolog.Nop()), upstream, zerolog.Nop())
}

func product(id string, price int64) domain.Product {
	return domain.Product{ID: domain.ProductID(id), Name: "product " + id, Price: decimal.NewFromInt(price)}
}
