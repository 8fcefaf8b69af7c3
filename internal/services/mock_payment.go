package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"asb-storefront/internal/models"
	"asb-storefront/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DeclineSuffix makes the mock gateway decline any card number ending with it
const DeclineSuffix = "0002"

// MockPaymentGateway simulates a card processor. Cards are format-checked
// immediately, then the charge resolves after a fixed delay.
type MockPaymentGateway struct {
	delay  time.Duration
	now    func() time.Time
	logger logrus.FieldLogger
}

// NewMockPaymentGateway creates a mock gateway that answers after delay
func NewMockPaymentGateway(delay time.Duration, logger logrus.FieldLogger) *MockPaymentGateway {
	return &MockPaymentGateway{
		delay:  delay,
		now:    time.Now,
		logger: logger.WithField("component", "mock_payment"),
	}
}

// Charge validates the card fields, waits for the configured delay and
// returns a new payment token
func (g *MockPaymentGateway) Charge(ctx context.Context, amount decimal.Decimal, card models.CardFields) (*models.PaymentResult, error) {
	digits, month, year, err := validateCard(card)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, &models.PaymentError{Code: models.PaymentInvalidAmount, Message: "Invalid payment amount"}
	}

	log := g.logger.WithFields(logrus.Fields{
		"amount": amount.StringFixed(2),
		"card":   utils.MaskCardNumber(digits),
	})
	log.Info("Processing mock payment")

	timer := time.NewTimer(g.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		log.WithError(ctx.Err()).Warn("Mock payment interrupted")
		return nil, contextPaymentError(ctx.Err())
	}

	if strings.HasSuffix(digits, DeclineSuffix) {
		log.Info("Mock payment declined")
		return nil, &models.PaymentError{Code: models.PaymentDeclined, Message: "Your card was declined"}
	}

	token, err := utils.GenerateHexToken("tok_", 12)
	if err != nil {
		return nil, err
	}

	result := &models.PaymentResult{
		Token: token,
		Card: models.CardSummary{
			Last4:    digits[len(digits)-4:],
			Brand:    CardBrand(digits),
			ExpMonth: month,
			ExpYear:  year,
		},
		Amount:      amount,
		ProcessedAt: g.now().UTC(),
	}

	log.WithField("token", token).Info("Mock payment approved")
	return result, nil
}

// validateCard runs the local format checks and returns the card digits and
// the parsed expiry
func validateCard(card models.CardFields) (string, int, int, error) {
	digits := strings.ReplaceAll(strings.TrimSpace(card.Number), " ", "")
	if len(digits) < 13 || !isDigits(digits) {
		return "", 0, 0, &models.PaymentError{Code: models.PaymentInvalidCardNumber, Message: "Invalid card number"}
	}

	month, year, ok := parseExpiry(strings.TrimSpace(card.Expiry))
	if !ok {
		return "", 0, 0, &models.PaymentError{Code: models.PaymentInvalidExpiry, Message: "Invalid expiry date"}
	}

	cvv := strings.TrimSpace(card.CVV)
	if len(cvv) < 3 || len(cvv) > 4 || !isDigits(cvv) {
		return "", 0, 0, &models.PaymentError{Code: models.PaymentInvalidCVV, Message: "Invalid CVV"}
	}

	if len(strings.TrimSpace(card.Name)) < 2 {
		return "", 0, 0, &models.PaymentError{Code: models.PaymentInvalidCardholder, Message: "Invalid cardholder name"}
	}

	return digits, month, year, nil
}

// parseExpiry accepts exactly MM/YY with a month between 01 and 12
func parseExpiry(expiry string) (int, int, bool) {
	if len(expiry) != 5 || expiry[2] != '/' {
		return 0, 0, false
	}
	if !isDigits(expiry[:2]) || !isDigits(expiry[3:]) {
		return 0, 0, false
	}
	month, _ := strconv.Atoi(expiry[:2])
	year, _ := strconv.Atoi(expiry[3:])
	if month < 1 || month > 12 {
		return 0, 0, false
	}
	return month, 2000 + year, true
}

// CardBrand derives the card network from the number prefix
func CardBrand(digits string) string {
	switch {
	case strings.HasPrefix(digits, "34"), strings.HasPrefix(digits, "37"):
		return "American Express"
	case strings.HasPrefix(digits, "4"):
		return "Visa"
	case strings.HasPrefix(digits, "5"):
		return "Mastercard"
	case strings.HasPrefix(digits, "6"):
		return "Discover"
	default:
		return "Card"
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func contextPaymentError(err error) *models.PaymentError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &models.PaymentError{Code: models.PaymentTimeout, Message: "Payment timed out. Please try again."}
	}
	return &models.PaymentError{Code: models.PaymentCancelled, Message: "Payment was cancelled"}
}
