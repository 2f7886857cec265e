package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Products lists the catalog.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.doJSON(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

type addToCartRequest struct {
	UserID   string         `json:"userId"`
	Product  domain.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

// AddToCart adds quantity units of product to the user's server cart and
// returns the server's cart afterwards.
func (c *Client) AddToCart(ctx context.Context, userID string, product domain.Product, quantity int) (domain.Cart, error) {
	req := addToCartRequest{UserID: userID, Product: product, Quantity: quantity}
	return c.cartJSON(ctx, http.MethodPost, "/cart", req)
}

type removeFromCartRequest struct {
	UserID    string           `json:"userId"`
	ProductID domain.ProductID `json:"productId"`
}

func (c *Client) RemoveFromCart(ctx context.Context, userID string, productID domain.ProductID) (domain.Cart, error) {
	req := removeFromCartRequest{UserID: userID, ProductID: productID}
	return c.cartJSON(ctx, http.MethodDelete, "/cart", req)
}

// Cart fetches the server's cart for userID.
func (c *Client) Cart(ctx context.Context, userID string) (domain.Cart, error) {
	return c.cartJSON(ctx, http.MethodGet, "/"+url.PathEscape(userID), nil)
}

// cartJSON performs a cart call. An empty cart is "[]"; a missing or null
// body carries no cart at all and is reported as ErrEmptyResponse.
func (c *Client) cartJSON(ctx context.Context, method, path string, in any) (domain.Cart, error) {
	var cart domain.Cart
	if err := c.doJSON(ctx, method, path, in, &cart); err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrEmptyResponse)
	}
	return cart, nil
}

type paymentIntentRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	PaymentMethodType string          `json:"paymentMethodType"`
}

// CreatePaymentIntent asks the server for a provider intent covering amount
// and returns its client secret.
func (c *Client) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, methodType string) (string, error) {
	var resp struct {
		ClientSecret string `json:"clientSecret"`
	}
	req := paymentIntentRequest{Amount: amount, PaymentMethodType: methodType}
	if err := c.doJSON(ctx, http.MethodPost, "/create-payment-intent", req, &resp); err != nil {
		return "", err
	}
	if resp.ClientSecret == "" {
		return "", ErrMissingClientSecret
	}
	return resp.ClientSecret, nil
}

// RecordPaymentRequest is the checkout form flattened together with the
// confirmed intent id and the purchased cart.
type RecordPaymentRequest struct {
	domain.CheckoutForm
	PaymentIntentID string      `json:"paymentIntentId"`
	Cart            domain.Cart `json:"cart"`
}

// RecordPayment stores a confirmed payment upstream and returns the
// server's confirmation payload untouched.
func (c *Client) RecordPayment(ctx context.Context, req RecordPaymentRequest) (json.RawMessage, error) {
	var confirmation json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/record-payment", req, &confirmation); err != nil {
		return nil, err
	}
	return confirmation, nil
}
