package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// LoginResult is the authenticated user plus the cookies the upstream set
// for it. Later admin calls replay those cookies through WithCredentials.
type LoginResult struct {
	User    domain.AdminUser
	Cookies []*http.Cookie
}

// CookieHeader renders the login cookies as a Cookie request header.
func (r *LoginResult) CookieHeader() string {
	parts := make([]string, 0, len(r.Cookies))
	for _, c := range r.Cookies {
		parts = append(parts, (&http.Cookie{Name: c.Name, Value: c.Value}).String())
	}
	return strings.Join(parts, "; ")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	cookies := resp.Cookies()

	var body struct {
		User domain.AdminUser `json:"user"`
	}
	if err := decode(resp, &body); err != nil {
		return nil, err
	}
	return &LoginResult{User: body.User, Cookies: cookies}, nil
}

// Logout ends the upstream admin session and returns its message.
func (c *Client) Logout(ctx context.Context) (string, error) {
	var body struct {
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/logout", nil, &body); err != nil {
		return "", err
	}
	return body.Message, nil
}

func (c *Client) Sales(ctx context.Context) (domain.SalesFigures, error) {
	var sales domain.SalesFigures
	err := c.doJSON(ctx, http.MethodGet, "/sales", nil, &sales)
	return sales, err
}

func (c *Client) Orders(ctx context.Context) ([]domain.AdminOrder, error) {
	var orders []domain.AdminOrder
	if err := c.doJSON(ctx, http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Upload is a file sent as one multipart part.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProductInput is the multipart form behind product create and update.
// Image is required on create and optional on update.
type ProductInput struct {
	Name  string
	Price string
	Image *Upload
}

func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	return c.sendProduct(ctx, http.MethodPost, "/products", in)
}

// UpdateProduct replaces the product's fields. The upstream serves updates
// on the singular /product path.
func (c *Client) UpdateProduct(ctx context.Context, id domain.ProductID, in ProductInput) (domain.Product, error) {
	return c.sendProduct(ctx, http.MethodPut, "/product/"+url.PathEscape(id.String()), in)
}

func (c *Client) DeleteProduct(ctx context.Context, id domain.ProductID) error {
	return c.doJSON(ctx, http.MethodDelete, "/products/"+url.PathEscape(id.String()), nil, nil)
}

func (c *Client) sendProduct(ctx context.Context, method, path string, in ProductInput) (domain.Product, error) {
	var product domain.Product

	body, contentType, err := productForm(in)
	if err != nil {
		return product, fmt.Errorf("build product form: %w", err)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return product, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req)
	if err != nil {
		return product, err
	}
	err = decode(resp, &product)
	return product, err
}

func productForm(in ProductInput) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("name", in.Name); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("price", in.Price); err != nil {
		return nil, "", err
	}
	if in.Image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, in.Image.Filename))
		contentType := in.Image.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(in.Image.Data); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
