package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"asb-storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// OrderService turns a paid checkout into a purchase document
type OrderService struct {
	repo    DocumentRepository
	taxRate decimal.Decimal
	now     func() time.Time
	logger  logrus.FieldLogger
}

// NewOrderService creates a new order service
func NewOrderService(repo DocumentRepository, taxRate decimal.Decimal, logger logrus.FieldLogger) *OrderService {
	return &OrderService{
		repo:    repo,
		taxRate: taxRate,
		now:     time.Now,
		logger:  logger.WithField("component", "order"),
	}
}

// TaxRate returns the rate purchase totals are computed with
func (s *OrderService) TaxRate() decimal.Decimal {
	return s.taxRate
}

// SubmitOrder persists the purchase for a successful payment. The payment
// token is the idempotency key, so submitting the same payment twice
// returns the purchase stored the first time.
func (s *OrderService) SubmitOrder(ctx context.Context, contact models.ContactInfo, cart *models.Cart, payment *models.PaymentResult) (*models.PurchaseRecord, error) {
	if cart.IsEmpty() {
		return nil, models.ErrEmptyCart
	}
	if payment == nil || payment.Token == "" {
		return nil, fmt.Errorf("payment token is required: %w", models.ErrInvalidInput)
	}

	record := models.NewPurchaseRecord(contact, cart, payment, s.taxRate, s.now())

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode purchase: %w", err)
	}

	doc, created, err := s.repo.CreateIdempotent(ctx, models.CollectionPurchases, payment.Token, data)
	if err != nil {
		return nil, fmt.Errorf("failed to save purchase: %w", err)
	}

	stored := &models.PurchaseRecord{}
	if err := doc.Decode(stored); err != nil {
		return nil, fmt.Errorf("failed to decode purchase %s: %w", doc.ID, err)
	}

	log := s.logger.WithFields(logrus.Fields{
		"purchase_id": stored.ID,
		"email":       stored.Email,
		"total":       stored.Total.StringFixed(2),
		"items":       stored.ItemCount,
	})
	if created {
		log.Info("Purchase recorded")
	} else {
		log.Warn("Purchase already recorded for payment, returning existing record")
	}

	return stored, nil
}
