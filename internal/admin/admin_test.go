package admin

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
)

type UpstreamMock struct {
	mu        sync.Mutex
	user      domain.AdminUser
	products  []domain.Product
	orders    []domain.AdminOrder
	sales     domain.SalesFigures
	err       error
	ordersErr error
	created   []api.ProductInput
}

func (m *UpstreamMock) Login(_ context.Context, email, _ string) (*api.LoginResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	u := m.user
	u.Email = email
	return &api.LoginResult{User: u, Cookies: []*http.Cookie{{Name: "token", Value: "abc"}}}, nil
}

func (m *UpstreamMock) Logout(context.Context) (string, error) {
	return "Logged out successfully", m.err
}

func (m *UpstreamMock) Products(context.Context) ([]domain.Product, error) {
	return m.products, m.err
}

func (m *UpstreamMock) Sales(context.Context) (domain.SalesFigures, error) {
	return m.sales, m.err
}

func (m *UpstreamMock) Orders(context.Context) ([]domain.AdminOrder, error) {
	if m.ordersErr != nil {
		return nil, m.ordersErr
	}
	return m.orders, m.err
}

func (m *UpstreamMock) CreateProduct(_ context.Context, in api.ProductInput) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, in)
	return domain.Product{ID: "new", Name: in.Name, Price: decimal.RequireFromString(in.Price)}, m.err
}

func (m *UpstreamMock) UpdateProduct(_ context.Context, id domain.ProductID, in api.ProductInput) (domain.Product, error) {
	return domain.Product{ID: id, Name: in.Name}, m.err
}

func (m *UpstreamMock) DeleteProduct(context.Context, domain.ProductID) error {
	return m.err
}

func newTestSession(t *testing.T) *session.Session {
	storage := session.NewMemoryStorage(time.Hour)
	t.Cleanup(func() { storage.Close() })
	return session.New("sid", storage)
}

func p(id, name string) domain.Product {
	return domain.Product{ID: domain.ProductID(id), Name: name, Price: decimal.NewFromInt(1)}
}

func o(productID string, amount int64, status string) domain.AdminOrder {
	return domain.AdminOrder{ProductID: domain.ProductID(productID), Amount: decimal.NewFromInt(amount), PaymentStatus: status}
}

func TestTopSelling(t *testing.T) {
	products := []domain.Product{p("1", "a"), p("2", "b"), p("3", "c"), p("4", "d"), p("5", "e"), p("6", "f"), p("7", "g")}
	orders := []domain.AdminOrder{
		o("2", 10, "paid"), o("2", 15, "paid"),
		o("4", 30, "paid"),
		o("6", 5, "pending"),
		o("99", 500, "paid"),
	}

	top := TopSelling(products, orders, TopSellingLimit)
	require.Len(t, top, 5)

	var ids []domain.ProductID
	for _, ps := range top {
		ids = append(ids, ps.ID)
	}
	assert.Equal(t, []domain.ProductID{"4", "2", "6", "1", "3"}, ids, "ties keep catalog order")
	assert.Equal(t, "30", top[0].TotalSales.String())
	assert.Equal(t, "25", top[1].TotalSales.String())
	assert.True(t, top[3].TotalSales.IsZero())
}

func TestTopSelling_FewerThanLimit(t *testing.T) {
	top := TopSelling([]domain.Product{p("1", "a")}, nil, TopSellingLimit)
	assert.Len(t, top, 1)
}

func TestStatusSummary(t *testing.T) {
	summary := StatusSummary([]domain.AdminOrder{o("1", 1, "paid"), o("2", 1, "paid"), o("3", 1, "failed")})
	assert.Equal(t, map[string]int{"paid": 2, "failed": 1}, summary)
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		isAdmin  bool
		wantErr  error
	}{
		{name: "admin", email: "a@shop.test", password: "pw", isAdmin: true},
		{name: "not admin", email: "u@shop.test", password: "pw", wantErr: ErrNotAdmin},
		{name: "missing password", email: "a@shop.test", wantErr: ErrMissingCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&UpstreamMock{user: domain.AdminUser{IsAdmin: tt.isAdmin}}, zerolog.Nop())
			sess := newTestSession(t)

			user, err := svc.Login(context.Background(), sess, tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				_, getErr := sess.Get(context.Background(), session.KeyAdminAuth)
				assert.ErrorIs(t, getErr, session.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.email, user.Email)

			cookie, err := sess.Get(context.Background(), session.KeyAdminAuth)
			require.NoError(t, err)
			assert.Equal(t, "token=abc", cookie)
		})
	}
}

func TestLogout_DropsCredentialsOnFailure(t *testing.T) {
	mock := &UpstreamMock{user: domain.AdminUser{IsAdmin: true}}
	svc := NewService(mock, zerolog.Nop())
	sess := newTestSession(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, sess, "a@shop.test", "pw")
	require.NoError(t, err)

	mock.err = errors.New("upstream down")
	_, err = svc.Logout(ctx, sess)
	assert.Error(t, err)

	_, err = sess.Get(ctx, session.KeyAdminAuth)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestDashboard(t *testing.T) {
	mock := &UpstreamMock{
		products: []domain.Product{p("1", "a"), p("2", "b")},
		orders:   []domain.AdminOrder{o("2", 10, "paid"), o("1", 3, "pending")},
		sales:    domain.SalesFigures{SalesCount: 2, Total: decimal.NewFromInt(13), TotalBuyer: 2},
	}
	svc := NewService(mock, zerolog.Nop())

	d, err := svc.Dashboard(context.Background(), newTestSession(t))
	require.NoError(t, err)
	assert.Len(t, d.Products, 2)
	assert.Equal(t, 2, d.Sales.SalesCount)
	assert.Equal(t, domain.ProductID("2"), d.TopSelling[0].ID)
	assert.Equal(t, map[string]int{"paid": 1, "pending": 1}, d.StatusSummary)
}

func TestDashboard_PartialFailure(t *testing.T) {
	mock := &UpstreamMock{ordersErr: errors.New("orders down")}
	svc := NewService(mock, zerolog.Nop())

	_, err := svc.Dashboard(context.Background(), newTestSession(t))
	assert.ErrorContains(t, err, "fetch orders")
}

func TestCreateProduct_Validation(t *testing.T) {
	mock := &UpstreamMock{}
	svc := NewService(mock, zerolog.Nop())
	sess := newTestSession(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, sess, ProductForm{Name: "Soap"})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.CreateProduct(ctx, sess, ProductForm{Name: "Soap", Price: "2.50"})
	assert.ErrorIs(t, err, ErrImageRequired)
	assert.Empty(t, mock.created)

	product, err := svc.CreateProduct(ctx, sess, ProductForm{
		Name: " Soap ", Price: "2.50",
		Image: &api.Upload{Filename: "soap.png", ContentType: "image/png", Data: []byte("x")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Soap", product.Name)
	require.Len(t, mock.created, 1)
	assert.Equal(t, "2.50", mock.created[0].Price)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	svc := NewService(&UpstreamMock{}, zerolog.Nop())
	sess := newTestSession(t)
	ctx := context.Background()

	product, err := svc.UpdateProduct(ctx, sess, "9", ProductForm{Name: "Salt", Price: "1"})
	require.NoError(t, err)
	assert.Equal(t, domain.ProductID("9"), product.ID)

	_, err = svc.UpdateProduct(ctx, sess, "", ProductForm{Name: "Salt", Price: "1"})
	assert.ErrorIs(t, err, ErrMissingFields)

	assert.NoError(t, svc.DeleteProduct(ctx, sess, "9"))
}
