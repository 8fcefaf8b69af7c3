package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"asb-storefront/internal/config"
	"asb-storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager() *SessionManager {
	logger, _ := test.NewNullLogger()
	store := NewCookieStore(config.SessionConfig{Secret: "test-secret-test-secret-test-sec", Name: "asb_session"}, false)
	return NewSessionManager(store, "asb_session", logger)
}

// carryCookies copies the cookies set on rec into a new request
func carryCookies(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}
	return req
}

func TestSessionManager_CartRoundTrip(t *testing.T) {
	manager := newTestSessionManager()

	cart := manager.LoadCart(httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	assert.True(t, cart.IsEmpty())
	assert.NotNil(t, cart.Items)

	cart.Items = append(cart.Items, models.CartLineItem{
		ID:       "hoodie",
		Name:     "ASB Hoodie",
		Price:    decimal.RequireFromString("20.00"),
		Quantity: 2,
		Size:     "M",
		Kind:     models.KindProduct,
	})

	rec := httptest.NewRecorder()
	require.NoError(t, manager.SaveCart(rec, httptest.NewRequest(http.MethodPost, "/api/cart/items", nil), cart))

	loaded := manager.LoadCart(carryCookies(rec))
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, 2, loaded.Items[0].Quantity)
	assert.True(t, loaded.Items[0].Price.Equal(decimal.RequireFromString("20.00")))
}

func TestSessionManager_TamperedCookieStartsFresh(t *testing.T) {
	manager := newTestSessionManager()

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(&http.Cookie{Name: "asb_session", Value: "forged"})

	cart := manager.LoadCart(req)
	assert.True(t, cart.IsEmpty())
}

func TestSessionManager_CheckoutID(t *testing.T) {
	manager := newTestSessionManager()

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", nil)
	assert.Empty(t, manager.PeekCheckoutID(req))

	rec := httptest.NewRecorder()
	id, err := manager.CheckoutID(rec, req)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	next := carryCookies(rec)
	assert.Equal(t, id, manager.PeekCheckoutID(next))

	again, err := manager.CheckoutID(httptest.NewRecorder(), next)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestSessionManager_CartSizeLimit(t *testing.T) {
	manager := newTestSessionManager()

	// a session that already carries a checkout id, as it does mid-checkout
	rec := httptest.NewRecorder()
	_, err := manager.CheckoutID(rec, httptest.NewRequest(http.MethodPost, "/api/checkout", nil))
	require.NoError(t, err)
	req := carryCookies(rec)

	line := func(i int) models.CartLineItem {
		return models.CartLineItem{
			ID:       models.ItemID(fmt.Sprintf("7f1c9a52-3b7e-4a51-9d0c-%012d", i)),
			Name:     "ASB Spirit Week Long Sleeve Tee",
			Price:    decimal.RequireFromString("24.99"),
			Quantity: 1,
			Size:     "XL",
			Color:    "Gold",
			Kind:     models.KindProduct,
			ImageURL: "/uploads/2026/09/01/0b6f3c1e-5a8d-4c1b-9f2e-7d3a1c5b9e20.png",
		}
	}

	cart := &models.Cart{}
	for i := 0; ; i++ {
		next := &models.Cart{Items: append(append([]models.CartLineItem{}, cart.Items...), line(i))}
		data, err := json.Marshal(next)
		require.NoError(t, err)
		if len(data) > MaxCartBytes {
			break
		}
		cart = next
	}
	require.NotEmpty(t, cart.Items)

	rec = httptest.NewRecorder()
	require.NoError(t, manager.SaveCart(rec, req, cart))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Less(t, len(cookies[0].String()), 4096)

	loaded := manager.LoadCart(carryCookies(rec))
	assert.Len(t, loaded.Items, len(cart.Items))

	cart.Items = append(cart.Items, line(len(cart.Items)))
	rec = httptest.NewRecorder()
	err = manager.SaveCart(rec, req, cart)
	assert.True(t, errors.Is(err, models.ErrCartFull))
	assert.Empty(t, rec.Result().Cookies())
}
