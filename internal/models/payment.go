package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CardFields is the raw card input of the payment form. It only lives for
// the duration of a single charge and is never stored.
type CardFields struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"` // MM/YY
	CVV    string `json:"cvv"`
	Name   string `json:"name"`
}

// CardSummary is the non-sensitive part of a card kept after a charge
type CardSummary struct {
	Last4    string `json:"last4"`
	Brand    string `json:"brand"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

// PaymentResult represents a successful charge
type PaymentResult struct {
	Token       string          `json:"token"`
	Card        CardSummary     `json:"card"`
	Amount      decimal.Decimal `json:"amount"`
	ProcessedAt time.Time       `json:"processedAt"`
}

// PaymentErrorCode classifies payment failures
type PaymentErrorCode string

const (
	PaymentInvalidCardNumber PaymentErrorCode = "invalid_card_number"
	PaymentInvalidExpiry     PaymentErrorCode = "invalid_expiry"
	PaymentInvalidCVV        PaymentErrorCode = "invalid_cvv"
	PaymentInvalidCardholder PaymentErrorCode = "invalid_cardholder"
	PaymentInvalidAmount     PaymentErrorCode = "amount_invalid"
	PaymentDeclined          PaymentErrorCode = "declined"
	PaymentTimeout           PaymentErrorCode = "timeout"
	PaymentCancelled         PaymentErrorCode = "cancelled"
)

// PaymentError is returned by payment gateways for every failed charge
type PaymentError struct {
	Code    PaymentErrorCode `json:"code"`
	Message string           `json:"message"`
}

func (e *PaymentError) Error() string {
	return e.Message
}

// IsValidation returns true when the charge was rejected by local format
// checks, before the gateway was contacted.
func (e *PaymentError) IsValidation() bool {
	switch e.Code {
	case PaymentInvalidCardNumber, PaymentInvalidExpiry, PaymentInvalidCVV, PaymentInvalidCardholder, PaymentInvalidAmount:
		return true
	}
	return false
}
