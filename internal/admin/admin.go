package admin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
)

// TopSellingLimit is how many products the dashboard ranks.
const TopSellingLimit = 5

var (
	ErrMissingCredentials = errors.New("please enter both email and password")
	ErrNotAdmin           = errors.New("user is not an admin")
	ErrMissingFields      = errors.New("please enter product name and price")
	ErrImageRequired      = errors.New("please select an image")
)

type Upstream interface {
	Login(ctx context.Context, email, password string) (*api.LoginResult, error)
	Logout(ctx context.Context) (string, error)
	Products(ctx context.Context) ([]domain.Product, error)
	Sales(ctx context.Context) (domain.SalesFigures, error)
	Orders(ctx context.Context) ([]domain.AdminOrder, error)
	CreateProduct(ctx context.Context, in api.ProductInput) (domain.Product, error)
	UpdateProduct(ctx context.Context, id domain.ProductID, in api.ProductInput) (domain.Product, error)
	DeleteProduct(ctx context.Context, id domain.ProductID) error
}

type Service struct {
	upstream Upstream
	log      zerolog.Logger
}

func NewService(upstream Upstream, log zerolog.Logger) *Service {
	return &Service{upstream: upstream, log: log.With().Str("component", "admin").Logger()}
}

// Login authenticates against the upstream and keeps its auth cookie in the
// session. Only users flagged isadmin get in.
func (s *Service) Login(ctx context.Context, sess *session.Session, email, password string) (*domain.AdminUser, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	res, err := s.upstream.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !res.User.IsAdmin {
		logger.Ctx(ctx, &s.log).Warn().Str("email", email).Msg("non-admin login rejected")
		return nil, ErrNotAdmin
	}
	if err := sess.Set(ctx, session.KeyAdminAuth, res.CookieHeader()); err != nil {
		return nil, fmt.Errorf("store admin credentials: %w", err)
	}

	logger.Ctx(ctx, &s.log).Info().Str("email", email).Msg("admin logged in")
	return &res.User, nil
}

// Logout ends the upstream session. Local credentials are dropped even when
// the upstream call fails.
func (s *Service) Logout(ctx context.Context, sess *session.Session) (string, error) {
	msg, err := s.upstream.Logout(s.withCredentials(ctx, sess))
	if delErr := sess.Delete(ctx, session.KeyAdminAuth); delErr != nil {
		err = errors.Join(err, delErr)
	}
	return msg, err
}

func (s *Service) withCredentials(ctx context.Context, sess *session.Session) context.Context {
	cookie, err := sess.Get(ctx, session.KeyAdminAuth)
	if err != nil {
		return ctx
	}
	return api.WithCredentials(ctx, cookie)
}

// Dashboard is the data behind the admin overview. Chart rendering is left
// to the client.
type Dashboard struct {
	Products      []domain.Product      `json:"products"`
	Sales         domain.SalesFigures   `json:"sales"`
	Orders        []domain.AdminOrder   `json:"orders"`
	TopSelling    []domain.ProductSales `json:"topSelling"`
	StatusSummary map[string]int        `json:"statusSummary"`
}

// Dashboard fetches products, sales and orders concurrently and derives the
// rankings from them.
func (s *Service) Dashboard(ctx context.Context, sess *session.Session) (*Dashboard, error) {
	ctx = s.withCredentials(ctx, sess)
	d := &Dashboard{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := s.upstream.Products(gctx)
		if err != nil {
			return fmt.Errorf("fetch products: %w", err)
		}
		d.Products = products
		return nil
	})
	g.Go(func() error {
		sales, err := s.upstream.Sales(gctx)
		if err != nil {
			return fmt.Errorf("fetch sales: %w", err)
		}
		d.Sales = sales
		return nil
	})
	g.Go(func() error {
		orders, err := s.upstream.Orders(gctx)
		if err != nil {
			return fmt.Errorf("fetch orders: %w", err)
		}
		d.Orders = orders
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Ctx(ctx, &s.log).Error().Err(err).Msg("failed to fetch dashboard data")
		return nil, err
	}

	d.TopSelling = TopSelling(d.Products, d.Orders, TopSellingLimit)
	d.StatusSummary = StatusSummary(d.Orders)
	return d, nil
}

// TopSelling sums order amounts per product, ranks products by that total
// and keeps the first limit. Ties keep catalog order.
func TopSelling(products []domain.Product, orders []domain.AdminOrder, limit int) []domain.ProductSales {
	totals := make(map[domain.ProductID]decimal.Decimal, len(products))
	for _, o := range orders {
		totals[o.ProductID] = totals[o.ProductID].Add(o.Amount)
	}

	ranked := make([]domain.ProductSales, len(products))
	for i, p := range products {
		ranked[i] = domain.ProductSales{Product: p, TotalSales: totals[p.ID]}
	}
	slices.SortStableFunc(ranked, func(a, b domain.ProductSales) int {
		return b.TotalSales.Cmp(a.TotalSales)
	})
	return ranked[:min(limit, len(ranked))]
}

// StatusSummary counts orders per payment status.
func StatusSummary(orders []domain.AdminOrder) map[string]int {
	summary := make(map[string]int)
	for _, o := range orders {
		summary[o.PaymentStatus]++
	}
	return summary
}

// ProductForm is the admin product editor's input.
type ProductForm struct {
	Name  string
	Price string
	Image *api.Upload
}

func (f ProductForm) validate(requireImage bool) error {
	if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.Price) == "" {
		return ErrMissingFields
	}
	if requireImage && f.Image == nil {
		return ErrImageRequired
	}
	return nil
}

func (f ProductForm) input() api.ProductInput {
	return api.ProductInput{Name: strings.TrimSpace(f.Name), Price: strings.TrimSpace(f.Price), Image: f.Image}
}

func (s *Service) CreateProduct(ctx context.Context, sess *session.Session, form ProductForm) (domain.Product, error) {
	if err := form.validate(true); err != nil {
		return domain.Product{}, err
	}
	product, err := s.upstream.CreateProduct(s.withCredentials(ctx, sess), form.input())
	if err != nil {
		return domain.Product{}, err
	}
	logger.Ctx(ctx, &s.log).Info().Str("product_id", product.ID.String()).Msg("product created")
	return product, nil
}

// UpdateProduct overwrites the product; the last write wins.
func (s *Service) UpdateProduct(ctx context.Context, sess *session.Session, id domain.ProductID, form ProductForm) (domain.Product, error) {
	if id == "" {
		return domain.Product{}, fmt.Errorf("%w: missing product id", ErrMissingFields)
	}
	if err := form.validate(false); err != nil {
		return domain.Product{}, err
	}
	product, err := s.upstream.UpdateProduct(s.withCredentials(ctx, sess), id, form.input())
	if err != nil {
		return domain.Product{}, err
	}
	logger.Ctx(ctx, &s.log).Info().Str("product_id", id.String()).Msg("product updated")
	return product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, sess *session.Session, id domain.ProductID) error {
	if err := s.upstream.DeleteProduct(s.withCredentials(ctx, sess), id); err != nil {
		return err
	}
	logger.Ctx(ctx, &s.log).Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}
