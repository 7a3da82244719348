package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	handler   http.Handler
	catalog   *fakeCatalog
	carts     *fakeCarts
	directory *fakeDirectory
	checkout  *fakeCheckout
	orders    *fakeOrders
}

func newTestAPI() *testAPI {
	api := &testAPI{
		catalog:   newFakeCatalog(),
		directory: newFakeDirectory(),
		checkout:  &fakeCheckout{},
		orders:    &fakeOrders{},
	}
	api.carts = newFakeCarts(api.catalog)

	timeout := time.Second
	api.handler = NewRouter(Handlers{
		Cart:      NewCartHandler(api.carts, timeout),
		Products:  NewProductHandler(api.catalog, timeout),
		Directory: NewDirectoryHandler(api.directory, timeout),
		Checkout:  NewCheckoutHandler(api.checkout, timeout),
		Orders:    NewOrdersHandler(api.orders, timeout),
	}, 5*time.Second)
	return api
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRouter_Health(t *testing.T) {
	api := newTestAPI()

	rec := api.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRouter_RequiresBearerToken(t *testing.T) {
	api := newTestAPI()

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"basic scheme", "Basic abc"},
		{"empty token", "Bearer   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			api.handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthorized", decodeBody[ErrorResponse](t, rec).Code)
		})
	}
}

func TestRouter_Products(t *testing.T) {
	api := newTestAPI()

	rec := api.do(t, http.MethodGet, "/api/v1/products", "token-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	products := decodeBody[[]domain.Product](t, rec)
	assert.Len(t, products, 2)

	rec = api.do(t, http.MethodGet, "/api/v1/products/2", "token-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Denim Jacket", decodeBody[domain.Product](t, rec).Name)

	rec = api.do(t, http.MethodGet, "/api/v1/products/99", "token-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product_not_found", decodeBody[ErrorResponse](t, rec).Code)

	rec = api.do(t, http.MethodGet, "/api/v1/products/abc", "token-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_OrdersEmptyList(t *testing.T) {
	api := newTestAPI()

	rec := api.do(t, http.MethodGet, "/api/v1/orders", "token-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestRouter_OrdersScopedToCaller(t *testing.T) {
	api := newTestAPI()
	api.orders.orders = []*domain.Order{
		{UserID: "token-1", Status: domain.OrderStatusConfirmed},
		{UserID: "token-2", Status: domain.OrderStatusConfirmed},
	}

	rec := api.do(t, http.MethodGet, "/api/v1/orders", "token-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]domain.Order](t, rec)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].Items)
}
