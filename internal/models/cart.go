package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the sales tax applied to every cart (8.75%)
var DefaultTaxRate = decimal.RequireFromString("0.0875")

// ItemKind distinguishes merchandise from event tickets
type ItemKind string

const (
	KindProduct     ItemKind = "product"
	KindEventTicket ItemKind = "event-ticket"
)

// IsValid reports whether the kind is one of the known values
func (k ItemKind) IsValid() bool {
	return k == KindProduct || k == KindEventTicket
}

// ItemID identifies a catalog entry. Catalog documents use string ids, but
// older clients still send numeric ones, so both JSON forms are accepted.
type ItemID string

func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ItemID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("item id must be a string or a number")
	}
	*id = ItemID(n.String())
	return nil
}

// VariantKey is the (id, size, color) tuple that identifies a line item
type VariantKey struct {
	ID    ItemID `json:"id"`
	Size  string `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
}

// CartLineItem represents one row in the shopping cart
type CartLineItem struct {
	ID       ItemID          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Size     string          `json:"size,omitempty"`
	Color    string          `json:"color,omitempty"`
	Kind     ItemKind        `json:"kind"`
	EventID  ItemID          `json:"eventId,omitempty"`
	ImageURL string          `json:"imageUrl,omitempty"`
}

// Key returns the variant key of the line item
func (i CartLineItem) Key() VariantKey {
	return VariantKey{ID: i.ID, Size: i.Size, Color: i.Color}
}

// LineTotal returns price × quantity
func (i CartLineItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Validate checks the shape of a line item before it enters a cart
func (i CartLineItem) Validate() error {
	if i.ID == "" {
		return errors.New("item id is required")
	}
	if strings.TrimSpace(i.Name) == "" {
		return errors.New("item name is required")
	}
	if i.Price.IsNegative() {
		return errors.New("item price cannot be negative")
	}
	if i.Quantity < 1 {
		return errors.New("quantity must be at least 1")
	}
	if !i.Kind.IsValid() {
		return errors.New("invalid item kind")
	}
	if i.Kind == KindEventTicket && i.EventID == "" {
		return errors.New("event tickets must reference an event")
	}
	return nil
}

// Cart represents the shopping cart of one browser session. Totals are
// always derived from Items and never stored.
type Cart struct {
	Items []CartLineItem `json:"items"`
}

// IsEmpty returns true if the cart has no line items
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// ItemCount returns the total quantity across all line items
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Subtotal returns Σ price × quantity
func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	if c == nil {
		return subtotal
	}
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}

// Tax returns the subtotal multiplied by rate, rounded to the cent
func (c *Cart) Tax(rate decimal.Decimal) decimal.Decimal {
	return c.Subtotal().Mul(rate).Round(2)
}

// Total returns subtotal plus tax
func (c *Cart) Total(rate decimal.Decimal) decimal.Decimal {
	return c.Subtotal().Add(c.Tax(rate))
}

// Find returns the index of the line item with the given key, or -1
func (c *Cart) Find(key VariantKey) int {
	if c == nil {
		return -1
	}
	for i := range c.Items {
		if c.Items[i].Key() == key {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the cart
func (c *Cart) Clone() *Cart {
	if c == nil {
		return &Cart{}
	}
	items := make([]CartLineItem, len(c.Items))
	copy(items, c.Items)
	return &Cart{Items: items}
}

// CartSummary is the JSON view of a cart with its derived totals
type CartSummary struct {
	Items     []CartLineItem  `json:"items"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	TaxRate   decimal.Decimal `json:"taxRate"`
	Total     decimal.Decimal `json:"total"`
}

// Summarize computes the cart summary for the given tax rate
func (c *Cart) Summarize(rate decimal.Decimal) CartSummary {
	items := []CartLineItem{}
	if c != nil && len(c.Items) > 0 {
		items = c.Clone().Items
	}
	return CartSummary{
		Items:     items,
		ItemCount: c.ItemCount(),
		Subtotal:  c.Subtotal(),
		Tax:       c.Tax(rate),
		TaxRate:   rate,
		Total:     c.Total(rate),
	}
}
