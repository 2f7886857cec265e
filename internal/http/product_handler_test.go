package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

func catalog(n int) []domain.Product {
	products := make([]domain.Product, 0, n)
	for i := 1; i <= n; i++ {
		products = append(products, testProduct(fmt.Sprint(i), int64(i)))
	}
	return products
}

func TestProducts_Pagination(t *testing.T) {
	handler := NewProductHandler(ProductListerMock{products: catalog(23)}, 5*time.Second)

	tests := []struct {
		page      string
		wantLen   int
		wantFirst domain.ProductID
	}{
		{page: "", wantLen: 10, wantFirst: "1"},
		{page: "2", wantLen: 10, wantFirst: "11"},
		{page: "3", wantLen: 3, wantFirst: "21"},
		{page: "4", wantLen: 0},
	}

	for _, tt := range tests {
		t.Run("page "+tt.page, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/products?page="+tt.page, nil))

			require.Equal(t, http.StatusOK, recorder.Code)
			var resp ProductsResponse
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
			assert.Len(t, resp.Products, tt.wantLen)
			assert.Equal(t, 3, resp.TotalPages)
			assert.Equal(t, 23, resp.Total)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, resp.Products[0].ID)
			}
		})
	}
}

func TestProducts_FilterIsCaseInsensitive(t *testing.T) {
	products := []domain.Product{
		{ID: "1", Name: "Red Shirt"},
		{ID: "2", Name: "Blue Jeans"},
		{ID: "3", Name: "red hat"},
	}
	handler := NewProductHandler(ProductListerMock{products: products}, 5*time.Second)

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/products?q=RED", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	var resp ProductsResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	require.Len(t, resp.Products, 2)
	assert.Equal(t, domain.ProductID("1"), resp.Products[0].ID)
	assert.Equal(t, domain.ProductID("3"), resp.Products[1].ID)
}

func TestProducts_InvalidPage(t *testing.T) {
	handler := NewProductHandler(ProductListerMock{}, 5*time.Second)

	for _, page := range []string{"0", "-1", "abc"} {
		recorder := httptest.NewRecorder()
		handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/products?page="+page, nil))

		assert.Equal(t, http.StatusBadRequest, recorder.Code, "page %q", page)
	}
}

func TestProducts_UpstreamFailure(t *testing.T) {
	handler := NewProductHandler(ProductListerMock{
		err: &api.StatusError{StatusCode: http.StatusInternalServerError, Message: "boom"},
	}, 5*time.Second)

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/products", nil))

	assert.Equal(t, http.StatusBadGateway, recorder.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "bad_gateway", resp.Code)
}
