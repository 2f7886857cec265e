package api

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

func TestLogin_ReturnsUserAndCookies(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"email":"admin@shop.test","password":"pw"}`, string(body))
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "t0k3n"})
		w.Write([]byte(`{"user":{"id":"1","email":"admin@shop.test","isadmin":true}}`))
	})

	res, err := client.Login(context.Background(), "admin@shop.test", "pw")
	require.NoError(t, err)
	assert.True(t, res.User.IsAdmin)
	assert.Equal(t, "token=t0k3n", res.CookieHeader())
}

func TestWithCredentials_ReplaysCookie(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token=t0k3n", r.Header.Get("Cookie"))
		w.Write([]byte(`{"message":"logged out"}`))
	})

	msg, err := client.Logout(WithCredentials(context.Background(), "token=t0k3n"))
	require.NoError(t, err)
	assert.Equal(t, "logged out", msg)
}

func TestSalesAndOrders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sales":
			w.Write([]byte(`{"sales_count":3,"total":120.5,"total_buyer":2}`))
		case "/orders":
			w.Write([]byte(`[{"product_id":1,"amount":20,"payment_status":"succeeded"}]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	sales, err := client.Sales(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sales.SalesCount)
	assert.Equal(t, "120.5", sales.Total.String())

	orders, err := client.Orders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.ProductID("1"), orders[0].ProductID)
}

func TestCreateProduct_Multipart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/products", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Soap", r.FormValue("name"))
		assert.Equal(t, "2.50", r.FormValue("price"))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "soap.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		assert.Equal(t, []byte("png-bytes"), data)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":9,"name":"Soap","price":2.5,"img":"soap.png"}`))
	})

	product, err := client.CreateProduct(context.Background(), ProductInput{
		Name:  "Soap",
		Price: "2.50",
		Image: &Upload{Filename: "soap.png", ContentType: "image/png", Data: []byte("png-bytes")},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ProductID("9"), product.ID)
}

func TestUpdateProduct_SingularPathWithoutImage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/product/9", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("image")
		assert.ErrorIs(t, err, http.ErrMissingFile)
		w.Write([]byte(`{"id":9,"name":"Soap+","price":3,"img":"soap.png"}`))
	})

	product, err := client.UpdateProduct(context.Background(), "9", ProductInput{Name: "Soap+", Price: "3"})
	require.NoError(t, err)
	assert.Equal(t, "Soap+", product.Name)
}

func TestDeleteProduct(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/products/9", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteProduct(context.Background(), "9"))
}
