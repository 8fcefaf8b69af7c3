package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"asb-storefront/internal/models"
	"asb-storefront/internal/repositories"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
)

// countingGateway records how many charges reached the wrapped gateway
type countingGateway struct {
	PaymentGateway
	calls int32
}

func (g *countingGateway) Charge(ctx context.Context, amount decimal.Decimal, card models.CardFields) (*models.PaymentResult, error) {
	atomic.AddInt32(&g.calls, 1)
	return g.PaymentGateway.Charge(ctx, amount, card)
}

type checkoutFeature struct {
	repo     *repositories.MemoryDocumentRepository
	gateway  *countingGateway
	service  *CheckoutService
	cart     *CartManager
	request  CheckoutRequest
	outcome  *CheckoutOutcome
	err      error
	checkout string
}

func (f *checkoutFeature) reset() {
	logger, _ := test.NewNullLogger()

	f.repo = repositories.NewMemoryDocumentRepository()
	f.gateway = &countingGateway{PaymentGateway: NewMockPaymentGateway(time.Millisecond, logger)}
	orders := NewOrderService(f.repo, models.DefaultTaxRate, logger)
	f.service = NewCheckoutService(f.gateway, orders, CheckoutOptions{
		PaymentTimeout: time.Second,
		TTL:            time.Minute,
	}, logger)
	f.cart = nil
	f.request = CheckoutRequest{}
	f.outcome = nil
	f.err = nil
	f.checkout = NewCheckoutID()
}

func slug(name string) models.ItemID {
	return models.ItemID(strings.ToLower(strings.ReplaceAll(name, " ", "-")))
}

func (f *checkoutFeature) anEmptyCart() error {
	f.cart = NewCartManager(nil)
	return nil
}

func (f *checkoutFeature) iAddPriced(quantity int, name, price string) error {
	return f.iAddVariantPriced(quantity, name, "", "", price)
}

func (f *checkoutFeature) iAddVariantPriced(quantity int, name, size, color, price string) error {
	amount, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	return f.cart.AddToCart(models.CartLineItem{
		ID:       slug(name),
		Name:     name,
		Price:    amount,
		Quantity: quantity,
		Size:     size,
		Color:    color,
		Kind:     models.KindProduct,
	})
}

func (f *checkoutFeature) iRemoveVariant(name, size, color string) error {
	key := models.VariantKey{ID: slug(name), Size: size, Color: color}
	if !f.cart.RemoveFromCart(key) {
		return fmt.Errorf("%s was not in the cart", name)
	}
	return nil
}

func (f *checkoutFeature) expectAmount(label string, got decimal.Decimal, want string) error {
	if got.StringFixed(2) != want {
		return fmt.Errorf("expected %s %s, got %s", label, want, got.StringFixed(2))
	}
	return nil
}

func (f *checkoutFeature) theSubtotalIs(want string) error {
	return f.expectAmount("subtotal", f.cart.Cart().Subtotal(), want)
}

func (f *checkoutFeature) theTaxIs(want string) error {
	return f.expectAmount("tax", f.cart.Cart().Tax(models.DefaultTaxRate), want)
}

func (f *checkoutFeature) theTotalIs(want string) error {
	return f.expectAmount("total", f.cart.Cart().Total(models.DefaultTaxRate), want)
}

func (f *checkoutFeature) theCartHasLineItems(count int) error {
	if got := len(f.cart.Cart().Items); got != count {
		return fmt.Errorf("expected %d line items, got %d", count, got)
	}
	return nil
}

func (f *checkoutFeature) theLineItemHasQuantity(name string, quantity int) error {
	for _, item := range f.cart.Cart().Items {
		if item.Name == name {
			if item.Quantity != quantity {
				return fmt.Errorf("expected quantity %d, got %d", quantity, item.Quantity)
			}
			return nil
		}
	}
	return fmt.Errorf("%s is not in the cart", name)
}

func (f *checkoutFeature) iFillInTheCheckoutFormFor(method string) error {
	f.request.Contact = models.ContactInfo{
		FirstName:      "Jamie",
		LastName:       "Rivera",
		Email:          "jamie@example.com",
		Phone:          "555-0100",
		DeliveryMethod: models.DeliveryMethod(method),
	}
	return nil
}

func (f *checkoutFeature) iEnterCardExpiring(number, expiry string) error {
	f.request.Card = models.CardFields{Number: number, Expiry: expiry, CVV: "123", Name: "Jamie Rivera"}
	return nil
}

func (f *checkoutFeature) iSubmitTheCheckout() error {
	f.outcome, f.err = f.service.Submit(context.Background(), f.checkout, f.cart, f.request)
	return nil
}

func (f *checkoutFeature) theOrderIsPlacedWithTotal(total string) error {
	if f.err != nil {
		return fmt.Errorf("checkout failed: %w", f.err)
	}
	if f.outcome.Notification != OrderPlacedNotification {
		return fmt.Errorf("unexpected notification %q", f.outcome.Notification)
	}
	return f.expectAmount("order total", f.outcome.Purchase.Total, total)
}

func (f *checkoutFeature) theCartIsEmpty() error {
	if !f.cart.Cart().IsEmpty() {
		return fmt.Errorf("cart still has %d items", f.cart.CartCount())
	}
	return nil
}

func (f *checkoutFeature) iAmSentTo(location string) error {
	if f.outcome == nil || f.outcome.Redirect != location {
		return fmt.Errorf("expected redirect to %s", location)
	}
	return nil
}

func (f *checkoutFeature) purchasesAreRecorded(count int) error {
	_, total, err := f.repo.List(context.Background(), models.CollectionPurchases, 10, 0)
	if err != nil {
		return err
	}
	if total != count {
		return fmt.Errorf("expected %d purchases, got %d", count, total)
	}
	return nil
}

func (f *checkoutFeature) theCheckoutIsRejectedWith(message string) error {
	var verr *models.ValidationError
	if !errors.As(f.err, &verr) {
		return fmt.Errorf("expected a validation error, got %v", f.err)
	}
	if verr.Message != message {
		return fmt.Errorf("expected %q, got %q", message, verr.Message)
	}
	return nil
}

func (f *checkoutFeature) theCardWasNotCharged() error {
	if calls := atomic.LoadInt32(&f.gateway.calls); calls != 0 {
		return fmt.Errorf("gateway was called %d times", calls)
	}
	return nil
}

func (f *checkoutFeature) thePaymentFailsWith(message string) error {
	var perr *models.PaymentError
	if !errors.As(f.err, &perr) {
		return fmt.Errorf("expected a payment error, got %v", f.err)
	}
	if perr.Message != message {
		return fmt.Errorf("expected %q, got %q", message, perr.Message)
	}
	return nil
}

func (f *checkoutFeature) theFailureViewOffers(action string) error {
	if got := RetryActionFor(f.cart.Cart()); got != action {
		return fmt.Errorf("expected %q, got %q", action, got)
	}
	return nil
}

func InitializeCheckoutScenario(ctx *godog.ScenarioContext) {
	f := &checkoutFeature{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		f.reset()
		return ctx, nil
	})

	ctx.Step(`^an empty cart$`, f.anEmptyCart)
	ctx.Step(`^I add (\d+) "([^"]*)" priced (\d+\.\d{2})$`, f.iAddPriced)
	ctx.Step(`^I add (\d+) "([^"]*)" size "([^"]*)" color "([^"]*)" priced (\d+\.\d{2})$`, f.iAddVariantPriced)
	ctx.Step(`^I remove "([^"]*)" size "([^"]*)" color "([^"]*)"$`, f.iRemoveVariant)
	ctx.Step(`^I fill in the checkout form for "([^"]*)"$`, f.iFillInTheCheckoutFormFor)
	ctx.Step(`^I enter card "([^"]*)" expiring "([^"]*)"$`, f.iEnterCardExpiring)
	ctx.Step(`^I submit the checkout$`, f.iSubmitTheCheckout)

	ctx.Step(`^the subtotal is "([^"]*)"$`, f.theSubtotalIs)
	ctx.Step(`^the tax is "([^"]*)"$`, f.theTaxIs)
	ctx.Step(`^the total is "([^"]*)"$`, f.theTotalIs)
	ctx.Step(`^the cart has (\d+) line items?$`, f.theCartHasLineItems)
	ctx.Step(`^the "([^"]*)" line item has quantity (\d+)$`, f.theLineItemHasQuantity)
	ctx.Step(`^the order is placed with total "([^"]*)"$`, f.theOrderIsPlacedWithTotal)
	ctx.Step(`^the cart is empty$`, f.theCartIsEmpty)
	ctx.Step(`^I am sent to "([^"]*)"$`, f.iAmSentTo)
	ctx.Step(`^(\d+) purchases? (?:is|are) recorded$`, f.purchasesAreRecorded)
	ctx.Step(`^the checkout is rejected with "([^"]*)"$`, f.theCheckoutIsRejectedWith)
	ctx.Step(`^the card was not charged$`, f.theCardWasNotCharged)
	ctx.Step(`^the payment fails with "([^"]*)"$`, f.thePaymentFailsWith)
	ctx.Step(`^the failure view offers "([^"]*)"$`, f.theFailureViewOffers)
}

func TestCheckoutFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeCheckoutScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
