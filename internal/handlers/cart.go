package handlers

import (
	"net/http"

	"asb-storefront/internal/middleware"
	"asb-storefront/internal/models"
	"asb-storefront/internal/services"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// QuantityChange adjusts the quantity of one cart line
type QuantityChange struct {
	models.VariantKey
	Delta int `json:"delta"`
}

// CartHandler serves the session cart
type CartHandler struct {
	sessions *middleware.SessionManager
	catalog  *services.CatalogService
	taxRate  decimal.Decimal
	logger   logrus.FieldLogger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(sessions *middleware.SessionManager, catalog *services.CatalogService, taxRate decimal.Decimal, logger logrus.FieldLogger) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		catalog:  catalog,
		taxRate:  taxRate,
		logger:   logger.WithField("component", "cart_handler"),
	}
}

// GetCart returns the cart with its totals
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart := h.sessions.LoadCart(r)
	writeJSON(w, http.StatusOK, cart.Summarize(h.taxRate))
}

// AddItem resolves the requested product or ticket against the catalog and
// adds it to the cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req services.CartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	item, err := h.catalog.ResolveCartItem(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	manager := services.NewCartManager(h.sessions.LoadCart(r))
	if err := manager.AddToCart(item); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.save(w, r, manager, http.StatusOK)
}

// UpdateItem changes the quantity of a line by a delta
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var change QuantityChange
	if err := decodeJSON(w, r, &change); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	manager := services.NewCartManager(h.sessions.LoadCart(r))
	if _, err := manager.UpdateQuantity(change.VariantKey, change.Delta); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.save(w, r, manager, http.StatusOK)
}

// RemoveItem deletes a line from the cart. Removing a missing line is a no-op.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	var key models.VariantKey
	if err := decodeJSON(w, r, &key); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	manager := services.NewCartManager(h.sessions.LoadCart(r))
	manager.RemoveFromCart(key)

	h.save(w, r, manager, http.StatusOK)
}

// ClearCart empties the cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	manager := services.NewCartManager(h.sessions.LoadCart(r))
	manager.ClearCart()

	h.save(w, r, manager, http.StatusOK)
}

func (h *CartHandler) save(w http.ResponseWriter, r *http.Request, manager *services.CartManager, status int) {
	if err := h.sessions.SaveCart(w, r, manager.Cart()); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, status, manager.Cart().Summarize(h.taxRate))
}
