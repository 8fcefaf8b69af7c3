package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"asb-storefront/internal/middleware"
	"asb-storefront/internal/models"
	"asb-storefront/internal/services"

	"github.com/sirupsen/logrus"
)

// maxJSONBody caps JSON request bodies
const maxJSONBody = 1 << 20

// PaymentErrorResponse is the body of a failed payment
type PaymentErrorResponse struct {
	Message       string                  `json:"message"`
	Code          models.PaymentErrorCode `json:"code"`
	CartPreserved bool                    `json:"cartPreserved"`
	RetryAction   string                  `json:"retryAction"`
}

// SubmissionErrorResponse is the body of a paid checkout whose order could
// not be saved yet
type SubmissionErrorResponse struct {
	Message       string `json:"message"`
	CartPreserved bool   `json:"cartPreserved"`
	RetryAction   string `json:"retryAction"`
	RetryURL      string `json:"retryUrl"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a JSON request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return fmt.Errorf("failed to read body: %w", models.ErrInvalidInput)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("malformed JSON body: %w", models.ErrInvalidInput)
	}
	return nil
}

// writeError maps service errors to HTTP responses. Unexpected errors are
// logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, middleware.ErrorResponse{Message: verr.Message, Errors: verr.Fields})
		return
	}

	var serr *services.SubmissionError
	if errors.As(err, &serr) {
		writeJSON(w, http.StatusServiceUnavailable, SubmissionErrorResponse{
			Message:       "Your payment went through but we could not save your order. Please try again.",
			CartPreserved: true,
			RetryAction:   "Try Again",
			RetryURL:      "/api/checkout/retry",
		})
		return
	}

	var maxErr *http.MaxBytesError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &maxErr), errors.Is(err, models.ErrFileTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrUnknownCollection),
		errors.Is(err, models.ErrCartItemNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrCheckoutInProgress), errors.Is(err, models.ErrNothingToRetry):
		status = http.StatusConflict
	case errors.Is(err, models.ErrUnsupportedType):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, models.ErrEmptyCart),
		errors.Is(err, models.ErrCartFull),
		errors.Is(err, models.ErrInvalidStatus),
		errors.Is(err, models.ErrInvalidInput):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		logger.WithError(err).WithFields(logrus.Fields{
			"path":       r.URL.Path,
			"request_id": middleware.GetRequestID(r.Context()),
		}).Error("Request failed")
		middleware.WriteError(w, status, "Something went wrong. Please try again.")
		return
	}

	middleware.WriteError(w, status, messageFor(err))
}

// writePaymentError answers a failed charge. The failure view offers another
// try while the cart still has items.
func writePaymentError(w http.ResponseWriter, perr *models.PaymentError, cart *models.Cart) {
	status := http.StatusPaymentRequired
	if perr.IsValidation() {
		status = http.StatusBadRequest
	}
	if perr.Code == models.PaymentTimeout {
		status = http.StatusGatewayTimeout
	}

	writeJSON(w, status, PaymentErrorResponse{
		Message:       perr.Message,
		Code:          perr.Code,
		CartPreserved: !cart.IsEmpty(),
		RetryAction:   services.RetryActionFor(cart),
	})
}

// messageFor returns the client-facing text of a known error
func messageFor(err error) string {
	for _, known := range []error{
		models.ErrEmptyCart,
		models.ErrCartItemNotFound,
		models.ErrCartFull,
		models.ErrCheckoutInProgress,
		models.ErrNothingToRetry,
		models.ErrInvalidStatus,
		models.ErrFileTooLarge,
		models.ErrUnsupportedType,
		models.ErrUnknownCollection,
		models.ErrNotFound,
	} {
		if errors.Is(err, known) {
			return capitalize(known.Error())
		}
	}
	return err.Error()
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
