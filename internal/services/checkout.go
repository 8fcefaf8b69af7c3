package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"asb-storefront/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CheckoutState is the position of a checkout in its lifecycle
type CheckoutState string

const (
	StateFormEntry          CheckoutState = "form_entry"
	StatePaymentInProgress  CheckoutState = "payment_in_progress"
	StateAwaitingSubmission CheckoutState = "awaiting_submission"
	StateOrderSubmitted     CheckoutState = "order_submitted"
)

const (
	OrderPlacedNotification = "Order placed successfully!"
	OrderConfirmedRedirect  = "/shop?order=confirmed"
)

// Actions offered on the payment failure view
const (
	RetryPaymentAction = "Try Payment Again"
	ReturnToShopAction = "Return to Shop"
)

// RetryActionFor picks the failure view action for the cart left after a
// failed payment
func RetryActionFor(cart *models.Cart) string {
	if cart == nil || cart.IsEmpty() {
		return ReturnToShopAction
	}
	return RetryPaymentAction
}

// submissionTimeout bounds order persistence once a payment went through
const submissionTimeout = 15 * time.Second

// CheckoutRequest is the form posted by the checkout page
type CheckoutRequest struct {
	Contact models.ContactInfo `json:"contact"`
	Card    models.CardFields  `json:"card"`
}

// CheckoutOutcome is returned when an order has been submitted
type CheckoutOutcome struct {
	Purchase     *models.PurchaseRecord `json:"purchase"`
	Notification string                 `json:"notification"`
	Redirect     string                 `json:"redirect"`
}

// CheckoutStatus is the public view of a checkout
type CheckoutStatus struct {
	ID         string              `json:"id"`
	State      CheckoutState       `json:"state"`
	Contact    *models.ContactInfo `json:"contact,omitempty"`
	PurchaseID string              `json:"purchaseId,omitempty"`
	CanRetry   bool                `json:"canRetry"`
}

// SubmissionError reports a charge that succeeded but whose purchase could
// not be saved. The checkout keeps the payment so the order can be retried.
type SubmissionError struct {
	Token string
	Err   error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("payment %s succeeded but the order could not be saved: %v", e.Token, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// CheckoutOptions configures the checkout service
type CheckoutOptions struct {
	PaymentTimeout time.Duration
	TTL            time.Duration
}

// checkout is one browser session's progress through the checkout flow
type checkout struct {
	mu         sync.Mutex
	state      CheckoutState
	submitting bool
	contact    models.ContactInfo
	cart       *models.Cart
	payment    *models.PaymentResult
	purchase   *models.PurchaseRecord
	touchedAt  time.Time
}

// CheckoutService drives the form entry → payment → order submission flow
type CheckoutService struct {
	gateway PaymentGateway
	orders  OrderSubmitter
	options CheckoutOptions
	logger  logrus.FieldLogger

	mu        sync.Mutex
	checkouts map[string]*checkout
	now       func() time.Time
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(gateway PaymentGateway, orders OrderSubmitter, options CheckoutOptions, logger logrus.FieldLogger) *CheckoutService {
	if options.PaymentTimeout <= 0 {
		options.PaymentTimeout = 30 * time.Second
	}
	if options.TTL <= 0 {
		options.TTL = 30 * time.Minute
	}
	return &CheckoutService{
		gateway:   gateway,
		orders:    orders,
		options:   options,
		logger:    logger.WithField("component", "checkout"),
		checkouts: make(map[string]*checkout),
		now:       time.Now,
	}
}

// NewCheckoutID returns an identifier for a new checkout
func NewCheckoutID() string {
	return uuid.NewString()
}

// Status returns the state of a checkout. Unknown ids are in form entry.
func (s *CheckoutService) Status(id string) CheckoutStatus {
	status := CheckoutStatus{ID: id, State: StateFormEntry}

	s.mu.Lock()
	c, ok := s.checkouts[id]
	s.mu.Unlock()
	if !ok {
		return status
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	status.State = c.state
	if c.state != StateFormEntry {
		contact := c.contact
		status.Contact = &contact
	}
	if c.purchase != nil {
		status.PurchaseID = c.purchase.ID
	}
	status.CanRetry = c.state == StateAwaitingSubmission && !c.submitting
	return status
}

// Submit validates the form, charges the card and submits the order. On
// success the paid lines leave the cart. Payment failures leave the cart untouched and
// return the checkout to form entry.
func (s *CheckoutService) Submit(ctx context.Context, id string, cart *CartManager, req CheckoutRequest) (*CheckoutOutcome, error) {
	log := s.logger.WithField("checkout_id", id)
	c := s.checkout(id)

	c.mu.Lock()
	switch c.state {
	case StatePaymentInProgress:
		c.mu.Unlock()
		return nil, models.ErrCheckoutInProgress
	case StateAwaitingSubmission:
		// the card was already charged; only the order is missing
		c.mu.Unlock()
		log.Info("Checkout already paid, resubmitting order")
		return s.Retry(ctx, id, cart)
	case StateOrderSubmitted:
		c.state = StateFormEntry
		c.purchase = nil
	}

	contact := req.Contact.Normalize()
	if err := contact.Validate(); err != nil {
		c.state = StateFormEntry
		c.touchedAt = s.now()
		c.mu.Unlock()
		return nil, err
	}

	snapshot := cart.Snapshot()
	if snapshot.IsEmpty() {
		c.state = StateFormEntry
		c.touchedAt = s.now()
		c.mu.Unlock()
		return nil, models.ErrEmptyCart
	}

	c.state = StatePaymentInProgress
	c.contact = contact
	c.cart = snapshot
	c.touchedAt = s.now()
	c.mu.Unlock()

	amount := snapshot.Total(s.orders.TaxRate())
	log = log.WithFields(logrus.Fields{"amount": amount.StringFixed(2), "items": snapshot.ItemCount()})
	log.Info("Starting payment")

	payCtx, cancel := context.WithTimeout(ctx, s.options.PaymentTimeout)
	payment, err := s.gateway.Charge(payCtx, amount, req.Card)
	ctxErr := payCtx.Err()
	cancel()

	if err != nil {
		var perr *models.PaymentError
		if !errors.As(err, &perr) {
			if ctxErr != nil {
				err = contextPaymentError(ctxErr)
			} else {
				err = fmt.Errorf("payment failed: %w", err)
			}
		}

		c.mu.Lock()
		c.state = StateFormEntry
		c.cart = nil
		c.touchedAt = s.now()
		c.mu.Unlock()

		log.WithError(err).Warn("Payment failed, returning to form entry")
		return nil, err
	}

	c.mu.Lock()
	c.state = StateAwaitingSubmission
	c.payment = payment
	c.submitting = true
	c.touchedAt = s.now()
	c.mu.Unlock()

	log.WithField("token", payment.Token).Info("Payment approved")
	return s.submit(ctx, c, cart, log)
}

// Retry resubmits the order of a paid checkout without charging again
func (s *CheckoutService) Retry(ctx context.Context, id string, cart *CartManager) (*CheckoutOutcome, error) {
	log := s.logger.WithField("checkout_id", id)

	s.mu.Lock()
	c, ok := s.checkouts[id]
	s.mu.Unlock()
	if !ok {
		return nil, models.ErrNothingToRetry
	}

	c.mu.Lock()
	if c.state != StateAwaitingSubmission {
		c.mu.Unlock()
		return nil, models.ErrNothingToRetry
	}
	if c.submitting {
		c.mu.Unlock()
		return nil, models.ErrCheckoutInProgress
	}
	c.submitting = true
	c.touchedAt = s.now()
	c.mu.Unlock()

	log.Info("Retrying order submission")
	return s.submit(ctx, c, cart, log)
}

// submit persists the order of a checkout in awaiting submission. The
// caller must have set c.submitting.
func (s *CheckoutService) submit(ctx context.Context, c *checkout, cart *CartManager, log logrus.FieldLogger) (*CheckoutOutcome, error) {
	c.mu.Lock()
	contact, snapshot, payment := c.contact, c.cart, c.payment
	c.mu.Unlock()

	// the card has been charged, so a client disconnect must not abort the save
	submitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), submissionTimeout)
	defer cancel()

	purchase, err := s.orders.SubmitOrder(submitCtx, contact, snapshot, payment)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	c.touchedAt = s.now()

	if err != nil {
		log.WithError(err).WithField("token", payment.Token).Error("Order submission failed after payment")
		return nil, &SubmissionError{Token: payment.Token, Err: err}
	}

	c.state = StateOrderSubmitted
	c.purchase = purchase
	c.payment = nil
	c.cart = nil
	cart.RemovePaid(snapshot)

	log.WithField("purchase_id", purchase.ID).Info("Order submitted")
	return &CheckoutOutcome{
		Purchase:     purchase,
		Notification: OrderPlacedNotification,
		Redirect:     OrderConfirmedRedirect,
	}, nil
}

// checkout returns the checkout with the given id, creating it if needed
func (s *CheckoutService) checkout(id string) *checkout {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.checkouts[id]
	if !ok {
		c = &checkout{state: StateFormEntry, touchedAt: s.now()}
		s.checkouts[id] = c
	}
	return c
}

// StartCleanup evicts idle checkouts until ctx is cancelled
func (s *CheckoutService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Cleanup removes checkouts idle for longer than the TTL. Checkouts with a
// payment in flight are kept. A paid checkout whose order was never saved
// gets one more submission attempt and stays registered until it succeeds.
func (s *CheckoutService) Cleanup() int {
	cutoff := s.now().Add(-s.options.TTL)

	s.mu.Lock()
	removed := 0
	unsaved := make(map[string]*checkout)
	for id, c := range s.checkouts {
		c.mu.Lock()
		idle := c.touchedAt.Before(cutoff) && c.state != StatePaymentInProgress && !c.submitting
		paid := idle && c.state == StateAwaitingSubmission
		if paid {
			c.submitting = true
		}
		c.mu.Unlock()

		switch {
		case paid:
			unsaved[id] = c
		case idle:
			delete(s.checkouts, id)
			removed++
		}
	}
	s.mu.Unlock()

	for id, c := range unsaved {
		if s.reconcile(id, c) {
			s.mu.Lock()
			delete(s.checkouts, id)
			s.mu.Unlock()
			removed++
		}
	}
	return removed
}

// reconcile saves the order of an abandoned paid checkout. The caller must
// have set c.submitting.
func (s *CheckoutService) reconcile(id string, c *checkout) bool {
	c.mu.Lock()
	contact, snapshot, payment := c.contact, c.cart, c.payment
	c.mu.Unlock()

	log := s.logger.WithFields(logrus.Fields{"checkout_id": id, "token": payment.Token})

	ctx, cancel := context.WithTimeout(context.Background(), submissionTimeout)
	defer cancel()
	purchase, err := s.orders.SubmitOrder(ctx, contact, snapshot, payment)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false

	if err != nil {
		log.WithError(err).Error("Abandoned paid checkout still has no saved order")
		return false
	}

	c.state = StateOrderSubmitted
	c.purchase = purchase
	c.payment = nil
	c.cart = nil
	log.WithField("purchase_id", purchase.ID).Warn("Saved order of abandoned paid checkout")
	return true
}
