package services

import (
	"context"
	"encoding/json"
	"io"

	"asb-storefront/internal/models"

	"github.com/shopspring/decimal"
)

// DocumentRepository defines the document store used by the catalog, the
// admin CRUD surface and order submission
type DocumentRepository interface {
	List(ctx context.Context, collection string, limit, offset int) ([]*models.Document, int, error)
	Get(ctx context.Context, collection, id string) (*models.Document, error)
	Create(ctx context.Context, collection string, data json.RawMessage) (*models.Document, error)
	CreateIdempotent(ctx context.Context, collection, key string, data json.RawMessage) (*models.Document, bool, error)
	Update(ctx context.Context, collection, id string, data json.RawMessage) (*models.Document, error)
	Delete(ctx context.Context, collection, id string) error
	Ping(ctx context.Context) error
}

// PaymentGateway charges a card. Every successful call returns a new token.
// Failures are reported as *models.PaymentError.
type PaymentGateway interface {
	Charge(ctx context.Context, amount decimal.Decimal, card models.CardFields) (*models.PaymentResult, error)
}

// OrderSubmitter persists the purchase of a paid checkout. TaxRate is the
// rate the stored purchase totals are computed with, so the charge uses it too.
type OrderSubmitter interface {
	TaxRate() decimal.Decimal
	SubmitOrder(ctx context.Context, contact models.ContactInfo, cart *models.Cart, payment *models.PaymentResult) (*models.PurchaseRecord, error)
}

// StorageService defines the interface for file storage operations
type StorageService interface {
	// Upload stores a file and returns its public URL
	Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (string, error)

	// Delete removes a file from storage
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for a file
	GetURL(key string) string

	// Exists checks if a file exists in storage
	Exists(ctx context.Context, key string) (bool, error)
}
