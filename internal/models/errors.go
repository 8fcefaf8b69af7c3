package models

import (
	"errors"
	"fmt"
)

// Common errors used throughout the application
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrUnknownCollection  = errors.New("unknown collection")
	ErrEmptyCart          = errors.New("your cart is empty")
	ErrCartFull           = errors.New("your cart is full")
	ErrCartItemNotFound   = errors.New("item is not in the cart")
	ErrCheckoutInProgress = errors.New("a payment is already being processed for this checkout")
	ErrNothingToRetry     = errors.New("there is no pending order to submit")
	ErrInvalidStatus      = errors.New("invalid purchase status")
	ErrFileTooLarge       = errors.New("file is too large")
	ErrUnsupportedType    = errors.New("file type is not allowed")
)

// ValidationError carries a user-facing message plus per-field messages
type ValidationError struct {
	Message string              `json:"message"`
	Fields  map[string][]string `json:"errors,omitempty"`
}

// NewValidationError creates an empty validation error with the given message
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message, Fields: make(map[string][]string)}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%d field errors)", e.Message, len(e.Fields))
}

// Is lets callers match any validation error with errors.Is(err, ErrInvalidInput)
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Add records a message for a field
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors returns true if any field error was recorded
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}
