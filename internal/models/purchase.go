package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseStatus represents the status of a purchase record
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchasePaid      PurchaseStatus = "paid"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

// IsValid reports whether the status is one of the known values
func (s PurchaseStatus) IsValid() bool {
	switch s {
	case PurchasePending, PurchasePaid, PurchaseCancelled:
		return true
	}
	return false
}

// PurchaseLine is the summary of one cart line kept on a purchase
type PurchaseLine struct {
	ID        ItemID          `json:"id"`
	Name      string          `json:"name"`
	Kind      ItemKind        `json:"kind"`
	EventID   ItemID          `json:"eventId,omitempty"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// PurchasePayment is the payment summary stored on a purchase
type PurchasePayment struct {
	Token string      `json:"token"`
	Card  CardSummary `json:"card"`
}

// PurchaseRecord is the document persisted for every completed checkout
type PurchaseRecord struct {
	ID             string          `json:"id"`
	FirstName      string          `json:"firstName"`
	LastName       string          `json:"lastName"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	DeliveryMethod DeliveryMethod  `json:"deliveryMethod"`
	RoomTeacher    string          `json:"roomTeacher,omitempty"`
	Items          []PurchaseLine  `json:"items"`
	ItemCount      int             `json:"itemCount"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	Payment        PurchasePayment `json:"payment"`
	Status         PurchaseStatus  `json:"status"`
	Date           time.Time       `json:"date"`
}

// NewPurchaseRecord composes a purchase from the checkout inputs. The id is
// assigned by the repository.
func NewPurchaseRecord(contact ContactInfo, cart *Cart, payment *PaymentResult, taxRate decimal.Decimal, now time.Time) *PurchaseRecord {
	lines := make([]PurchaseLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, PurchaseLine{
			ID:        item.ID,
			Name:      item.Name,
			Kind:      item.Kind,
			EventID:   item.EventID,
			Size:      item.Size,
			Color:     item.Color,
			Price:     item.Price,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		})
	}

	return &PurchaseRecord{
		FirstName:      contact.FirstName,
		LastName:       contact.LastName,
		Email:          contact.Email,
		Phone:          contact.Phone,
		DeliveryMethod: contact.DeliveryMethod,
		RoomTeacher:    contact.RoomTeacher,
		Items:          lines,
		ItemCount:      cart.ItemCount(),
		Subtotal:       cart.Subtotal(),
		Tax:            cart.Tax(taxRate),
		Total:          cart.Total(taxRate),
		Payment: PurchasePayment{
			Token: payment.Token,
			Card:  payment.Card,
		},
		Status: PurchasePaid,
		Date:   now.UTC(),
	}
}
