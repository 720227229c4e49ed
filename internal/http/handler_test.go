package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fjod/gogift/internal/cart"
	"github.com/fjod/gogift/internal/catalog"
	"github.com/fjod/gogift/internal/checkout"
	"github.com/fjod/gogift/internal/domain"
	"github.com/fjod/gogift/internal/notify"
	"github.com/fjod/gogift/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCatalog struct {
	m     sync.RWMutex
	cards map[string]domain.GiftCard
	err   error
}

func (c *mockCatalog) GetGiftCard(_ context.Context, id string) (*domain.GiftCard, error) {
	c.m.RLock()
	defer c.m.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	card, ok := c.cards[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &card, nil
}

type mockCheckouter struct {
	m         sync.RWMutex
	pref      *domain.Preference
	err       error
	approved  []string
	processed bool
}

func (c *mockCheckouter) Checkout(context.Context) (*domain.Preference, error) {
	c.m.RLock()
	defer c.m.RUnlock()
	return c.pref, c.err
}

func (c *mockCheckouter) PaymentApproved(_ context.Context, ref string) (bool, error) {
	c.m.Lock()
	defer c.m.Unlock()
	if c.err != nil {
		return false, c.err
	}
	c.approved = append(c.approved, ref)
	return c.processed, nil
}

type testEnv struct {
	router   chi.Router
	engine   *cart.Engine
	hub      *notify.Hub
	catalog  *mockCatalog
	checkout *mockCheckouter
	orders   *mockOrders
}

func setupRouter(t *testing.T) *testEnv {
	logger, _ := test.NewNullLogger()
	hub := notify.NewHub(0)
	engine := cart.New(store.NewMemory(), hub, cart.WithLogger(logger))
	require.NoError(t, engine.Load(context.Background()))
	t.Cleanup(func() {
		engine.Close()
		hub.Close()
	})

	cat := &mockCatalog{cards: map[string]domain.GiftCard{
		"gc-1": {
			ID:             "gc-1",
			Title:          "Coffee",
			SellingPrice:   decimal.RequireFromString("103.00"),
			DesiredAmount:  decimal.NewFromInt(100),
			AvailableStock: 5,
		},
	}}
	co := &mockCheckouter{}
	orders := &mockOrders{}

	router := NewRouter(Handlers{
		Cart:     NewCartHandler(engine, cat, 5*time.Second),
		Checkout: NewCheckoutHandler(co, 5*time.Second),
		Feed:     NewFeedHandler(engine, hub, logger),
		Orders:   NewOrdersHandler(orders, 5*time.Second),
	}, logger, 5*time.Second)

	return &testEnv{router: router, engine: engine, hub: hub, catalog: cat, checkout: co, orders: orders}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(method, path, reader)
	e.router.ServeHTTP(recorder, request)
	return recorder
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) CartResponse {
	var resp CartResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	env := setupRouter(t)

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	}
}

func TestRequestID(t *testing.T) {
	env := setupRouter(t)

	request := httptest.NewRequest(http.MethodGet, "/health", nil)
	request.Header.Set("X-Request-ID", "req-42")
	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, request)
	assert.Equal(t, "req-42", recorder.Header().Get("X-Request-ID"))

	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestGetCart_Empty(t *testing.T) {
	env := setupRouter(t)

	rec := env.do(t, http.MethodGet, "/api/v1/cart", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeCart(t, rec)
	assert.Empty(t, resp.Items)
	assert.Equal(t, "0.00", resp.Totals.GrandTotal)
}

func TestAddItem_Success(t *testing.T) {
	env := setupRouter(t)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "gc-1", Quantity: 2})

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeCart(t, rec)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Coffee", resp.Items[0].Title)
	assert.Equal(t, 2, resp.Items[0].Quantity)
	assert.Equal(t, "206.00", resp.Items[0].LineTotal)
	assert.Equal(t, 2, resp.Items[0].Remaining)
	assert.Equal(t, 2, resp.ItemCount)
	assert.Equal(t, TotalsDTO{
		BaseTotal:   "200.00",
		PlatformFee: "6.00",
		Subtotal:    "206.00",
		ServiceFee:  "10.30",
		GrandTotal:  "216.30",
	}, resp.Totals)
}

func TestAddItem_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{"invalid json", "not an object", http.StatusBadRequest, "invalid_request"},
		{"missing product", AddItemRequestDTO{Quantity: 1}, http.StatusBadRequest, "invalid_product_id"},
		{"unknown product", AddItemRequestDTO{ProductID: "nope", Quantity: 1}, http.StatusNotFound, "not_found"},
		{"zero quantity", AddItemRequestDTO{ProductID: "gc-1", Quantity: 0}, http.StatusBadRequest, "invalid_argument"},
		{"over stock", AddItemRequestDTO{ProductID: "gc-1", Quantity: 6}, http.StatusConflict, "stock_exceeded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupRouter(t)

			rec := env.do(t, http.MethodPost, "/api/v1/cart/items", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
			assert.Empty(t, env.engine.Snapshot())
		})
	}
}

func TestAddItem_CatalogUnavailable(t *testing.T) {
	env := setupRouter(t)
	env.catalog.err = catalog.ErrUnavailable

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "gc-1", Quantity: 1})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	env := setupRouter(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "gc-1", Quantity: 1}).Code)

	rec := env.do(t, http.MethodPut, "/api/v1/cart/items/gc-1", UpdateQuantityRequestDTO{Quantity: 9})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decodeCart(t, rec).Items[0].Quantity)

	rec = env.do(t, http.MethodPut, "/api/v1/cart/items/gc-1", "bad")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/cart/items/gc-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeCart(t, rec).Items)
}

func TestGifts(t *testing.T) {
	env := setupRouter(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "gc-1", Quantity: 3}).Code)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items/gc-1/gifts", AddGiftRequestDTO{Name: "Bob", Email: "b@x.com", Quantity: 2, Message: "hi"})
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeCart(t, rec)
	require.Len(t, resp.Items[0].Gifts, 1)
	assert.Equal(t, 1, resp.Items[0].Remaining)

	rec = env.do(t, http.MethodPost, "/api/v1/cart/items/gc-1/gifts", AddGiftRequestDTO{Name: "Ann", Email: "a@x.com", Quantity: 2})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/cart/items/gc-1/gifts", AddGiftRequestDTO{Email: "a@x.com", Quantity: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/cart/items/gc-1/gifts/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/cart/items/gc-1/gifts/3", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "gift_not_found", decodeError(t, rec).Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/cart/items/gc-1/gifts/0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeCart(t, rec).Items[0].Gifts)
}

func TestCheckoutPayloadAndClear(t *testing.T) {
	env := setupRouter(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "gc-1", Quantity: 1}).Code)

	rec := env.do(t, http.MethodGet, "/api/v1/cart/checkout-payload", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[{"product_id":"gc-1","quantity":1,"gifts":[]}]}`, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeCart(t, rec).Items)
}

func TestCheckout(t *testing.T) {
	env := setupRouter(t)
	env.checkout.pref = &domain.Preference{PreferenceID: "p1", InitPoint: "https://pay/p1"}

	rec := env.do(t, http.MethodPost, "/api/v1/checkout", nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"preference_id":"p1","init_point":"https://pay/p1"}`, rec.Body.String())
}

func TestCheckout_Errors(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{checkout.ErrEmptyCart, http.StatusBadRequest},
		{checkout.ErrMissingInitPoint, http.StatusBadGateway},
		{&checkout.PaymentError{Status: 400, Detail: "nope"}, http.StatusBadGateway},
		{checkout.ErrPaymentUnavailable, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			env := setupRouter(t)
			env.checkout.err = tt.err

			rec := env.do(t, http.MethodPost, "/api/v1/checkout", nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestPaymentApproved(t *testing.T) {
	env := setupRouter(t)
	env.checkout.processed = true

	rec := env.do(t, http.MethodPost, "/api/v1/checkout/approved", PaymentApprovedRequestDTO{PaymentID: "pay-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"payment_id":"pay-1","processed":true}`, rec.Body.String())
	assert.Equal(t, []string{"pay-1"}, env.checkout.approved)
}

func TestSellingPrice(t *testing.T) {
	env := setupRouter(t)

	rec := env.do(t, http.MethodGet, "/api/v1/pricing/selling-price?desired_amount=100", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"desired_amount":"100.00","selling_price":"103.00"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/pricing/selling-price?desired_amount=-5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"selling_price":"0.00"`))

	rec = env.do(t, http.MethodGet, "/api/v1/pricing/selling-price?desired_amount=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
