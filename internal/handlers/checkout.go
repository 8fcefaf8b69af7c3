package handlers

import (
	"errors"
	"net/http"

	"asb-storefront/internal/middleware"
	"asb-storefront/internal/models"
	"asb-storefront/internal/services"

	"github.com/sirupsen/logrus"
)

// CheckoutHandler runs the checkout of the session cart
type CheckoutHandler struct {
	sessions *middleware.SessionManager
	checkout *services.CheckoutService
	logger   logrus.FieldLogger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(sessions *middleware.SessionManager, checkout *services.CheckoutService, logger logrus.FieldLogger) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: sessions,
		checkout: checkout,
		logger:   logger.WithField("component", "checkout_handler"),
	}
}

// Status returns the state of the session's checkout
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := h.sessions.PeekCheckoutID(r)
	writeJSON(w, http.StatusOK, h.checkout.Status(id))
}

// Submit validates the form, charges the card and places the order
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req services.CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	id, err := h.sessions.CheckoutID(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	cart := services.NewCartManager(h.sessions.LoadCart(r))
	outcome, err := h.checkout.Submit(r.Context(), id, cart, req)
	h.respond(w, r, cart, outcome, err)
}

// Retry resubmits the order of a checkout that was paid but not saved
func (h *CheckoutHandler) Retry(w http.ResponseWriter, r *http.Request) {
	id := h.sessions.PeekCheckoutID(r)
	if id == "" {
		writeError(w, r, h.logger, models.ErrNothingToRetry)
		return
	}

	cart := services.NewCartManager(h.sessions.LoadCart(r))
	outcome, err := h.checkout.Retry(r.Context(), id, cart)
	h.respond(w, r, cart, outcome, err)
}

func (h *CheckoutHandler) respond(w http.ResponseWriter, r *http.Request, cart *services.CartManager, outcome *services.CheckoutOutcome, err error) {
	var perr *models.PaymentError
	if errors.As(err, &perr) {
		writePaymentError(w, perr, cart.Cart())
		return
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	// the order is saved; the cleared cart has to reach the cookie
	if err := h.sessions.SaveCart(w, r, cart.Cart()); err != nil {
		h.logger.WithError(err).WithField("purchase_id", outcome.Purchase.ID).Error("Failed to clear session cart after order")
	}
	writeJSON(w, http.StatusCreated, outcome)
}
