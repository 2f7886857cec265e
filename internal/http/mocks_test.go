package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/admin"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/session"
)

type ProductListerMock struct {
	products []domain.Product
	err      error
}

func (m ProductListerMock) Products(ctx context.Context) ([]domain.Product, error) {
	return m.products, m.err
}

type CartServiceMock struct {
	cart       domain.Cart
	err        error
	added      []domain.Product
	quantities []int
}

func (m *CartServiceMock) Load(ctx context.Context, s *session.Session) (domain.Cart, error) {
	return m.cart, m.err
}

func (m *CartServiceMock) Add(ctx context.Context, s *session.Session, product domain.Product, quantity int) (domain.Cart, error) {
	m.added = append(m.added, product)
	m.quantities = append(m.quantities, quantity)
	return m.cart, m.err
}

func (m *CartServiceMock) Remove(ctx context.Context, s *session.Session, productID domain.ProductID) (domain.Cart, error) {
	return m.cart, m.err
}

func (m *CartServiceMock) Increase(ctx context.Context, s *session.Session, productID domain.ProductID) (domain.Cart, error) {
	return m.cart, m.err
}

func (m *CartServiceMock) Decrease(ctx context.Context, s *session.Session, productID domain.ProductID) (domain.Cart, error) {
	return m.cart, m.err
}

func (m *CartServiceMock) Sync(ctx context.Context, s *session.Session) (domain.Cart, error) {
	return m.cart, m.err
}

type PaymentServiceMock struct {
	attempt *payment.Attempt
	order   *domain.Order
	err     error
	proof   payment.Proof
}

func (m *PaymentServiceMock) SelectMethod(ctx context.Context, s *session.Session, method payment.Method) (*payment.Attempt, error) {
	return m.attempt, m.err
}

func (m *PaymentServiceMock) PayOnline(ctx context.Context, s *session.Session, req payment.PayOnlineRequest) (*domain.Order, error) {
	return m.order, m.err
}

func (m *PaymentServiceMock) BankTransfer(ctx context.Context, s *session.Session) (*payment.TransferInstructions, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &payment.TransferInstructions{AccountName: "John Doe", Amount: decimal.NewFromInt(20)}, nil
}

func (m *PaymentServiceMock) AttachProof(ctx context.Context, s *session.Session, proof payment.Proof) (*payment.Attempt, error) {
	m.proof = proof
	return m.attempt, m.err
}

type AdminServiceMock struct {
	user      *domain.AdminUser
	dashboard *admin.Dashboard
	product   domain.Product
	err       error
	form      admin.ProductForm
	deleted   domain.ProductID
}

func (m *AdminServiceMock) Login(ctx context.Context, s *session.Session, email, password string) (*domain.AdminUser, error) {
	return m.user, m.err
}

func (m *AdminServiceMock) Logout(ctx context.Context, s *session.Session) (string, error) {
	return "logged out", m.err
}

func (m *AdminServiceMock) Dashboard(ctx context.Context, s *session.Session) (*admin.Dashboard, error) {
	return m.dashboard, m.err
}

func (m *AdminServiceMock) CreateProduct(ctx context.Context, s *session.Session, form admin.ProductForm) (domain.Product, error) {
	m.form = form
	return m.product, m.err
}

func (m *AdminServiceMock) UpdateProduct(ctx context.Context, s *session.Session, id domain.ProductID, form admin.ProductForm) (domain.Product, error) {
	m.form = form
	return m.product, m.err
}

func (m *AdminServiceMock) DeleteProduct(ctx context.Context, s *session.Session, id domain.ProductID) error {
	m.deleted = id
	return m.err
}

// withTestSession attaches a fresh in-memory session to r, the way
// SessionMiddleware does.
func withTestSession(t *testing.T, r *http.Request) *http.Request {
	t.Helper()
	storage := session.NewMemoryStorage(time.Hour)
	t.Cleanup(func() { storage.Close() })
	ctx := context.WithValue(r.Context(), sessionKey{}, session.New("sid-test", storage))
	return r.WithContext(ctx)
}

func testProduct(id string, price int64) domain.Product {
	return domain.Product{ID: domain.ProductID(id), Name: "product " + id, Price: decimal.NewFromInt(price)}
}
