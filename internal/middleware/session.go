package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"asb-storefront/internal/config"
	"asb-storefront/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"
)

const (
	sessionCartKey     = "cart"
	sessionCheckoutKey = "checkout_id"
)

// MaxCartBytes bounds the cart JSON kept in the session. Signing and the two
// base64 passes grow it about 1.8x, which keeps the cookie under the 4096
// byte limit of securecookie and browsers.
const MaxCartBytes = 1800

// NewCookieStore creates the signed cookie store holding carts
func NewCookieStore(cfg config.SessionConfig, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// SessionManager keeps the cart and checkout id of a browser session
type SessionManager struct {
	store  sessions.Store
	name   string
	logger logrus.FieldLogger
}

// NewSessionManager creates a new session manager
func NewSessionManager(store sessions.Store, name string, logger logrus.FieldLogger) *SessionManager {
	return &SessionManager{
		store:  store,
		name:   name,
		logger: logger.WithField("component", "session"),
	}
}

// session returns the request session. A cookie that fails to decode is
// replaced by a fresh session.
func (m *SessionManager) session(r *http.Request) *sessions.Session {
	session, err := m.store.Get(r, m.name)
	if err != nil {
		m.logger.WithError(err).Warn("Discarding unreadable session cookie")
	}
	return session
}

// LoadCart returns the cart stored in the session, or an empty cart
func (m *SessionManager) LoadCart(r *http.Request) *models.Cart {
	cart := &models.Cart{Items: []models.CartLineItem{}}

	raw, ok := m.session(r).Values[sessionCartKey].(string)
	if !ok || raw == "" {
		return cart
	}

	if err := json.Unmarshal([]byte(raw), cart); err != nil {
		m.logger.WithError(err).Warn("Discarding malformed session cart")
		return &models.Cart{Items: []models.CartLineItem{}}
	}
	if cart.Items == nil {
		cart.Items = []models.CartLineItem{}
	}
	return cart
}

// SaveCart writes the cart to the session cookie. A cart too large for the
// cookie is refused with models.ErrCartFull and the stored cart is kept.
func (m *SessionManager) SaveCart(w http.ResponseWriter, r *http.Request, cart *models.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if len(data) > MaxCartBytes {
		m.logger.WithFields(logrus.Fields{
			"bytes": len(data),
			"lines": len(cart.Items),
		}).Warn("Cart exceeds session size limit")
		return models.ErrCartFull
	}

	session := m.session(r)
	session.Values[sessionCartKey] = string(data)
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// CheckoutID returns the checkout id of the session, assigning one when the
// session has none yet
func (m *SessionManager) CheckoutID(w http.ResponseWriter, r *http.Request) (string, error) {
	session := m.session(r)
	if id, ok := session.Values[sessionCheckoutKey].(string); ok && id != "" {
		return id, nil
	}

	id := uuid.NewString()
	session.Values[sessionCheckoutKey] = id
	if err := session.Save(r, w); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return id, nil
}

// PeekCheckoutID returns the checkout id without assigning one
func (m *SessionManager) PeekCheckoutID(r *http.Request) string {
	id, _ := m.session(r).Values[sessionCheckoutKey].(string)
	return id
}
