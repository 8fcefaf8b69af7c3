package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Collection names of the document store
const (
	CollectionProducts        = "products"
	CollectionEvents          = "events"
	CollectionVideos          = "videos"
	CollectionAnnouncements   = "announcements"
	CollectionStudentGov      = "student-gov"
	CollectionClubs           = "clubs"
	CollectionAthletics       = "athletics"
	CollectionArts            = "arts"
	CollectionFormSubmissions = "form-submissions"
	CollectionPurchases       = "purchases"
)

// Collections lists every collection exposed through the CRUD API
var Collections = []string{
	CollectionProducts,
	CollectionEvents,
	CollectionVideos,
	CollectionAnnouncements,
	CollectionStudentGov,
	CollectionClubs,
	CollectionAthletics,
	CollectionArts,
	CollectionFormSubmissions,
	CollectionPurchases,
}

// IsKnownCollection reports whether name is a collection of the store
func IsKnownCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}

// Document is a JSON object stored in a collection
type Document struct {
	ID             string          `json:"id" db:"id"`
	Collection     string          `json:"-" db:"collection"`
	Data           json.RawMessage `json:"data" db:"data"`
	IdempotencyKey *string         `json:"-" db:"idempotency_key"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
}

// Flatten returns the document body with id, createdAt and updatedAt merged
// in, which is the shape served to clients.
func (d *Document) Flatten() (map[string]interface{}, error) {
	body := make(map[string]interface{})
	if len(d.Data) > 0 {
		if err := json.Unmarshal(d.Data, &body); err != nil {
			return nil, err
		}
	}
	body["id"] = d.ID
	body["createdAt"] = d.CreatedAt
	body["updatedAt"] = d.UpdatedAt
	return body, nil
}

// Decode unmarshals the document body into v and copies the id when v has
// an ID field understood by the catalog types.
func (d *Document) Decode(v interface{}) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return err
	}
	switch t := v.(type) {
	case *Product:
		t.ID = d.ID
	case *Event:
		t.ID = d.ID
	case *PurchaseRecord:
		t.ID = d.ID
	}
	return nil
}

// Product is a merchandise entry of the store
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category,omitempty"`
	Sizes       []string        `json:"sizes,omitempty"`
	Colors      []string        `json:"colors,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	InStock     *bool           `json:"inStock,omitempty"`
}

// Validate checks the fields a product needs to be sold
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("product name is required")
	}
	if p.Price.IsNegative() {
		return errors.New("product price cannot be negative")
	}
	return nil
}

// Available returns false only when the product is explicitly out of stock
func (p *Product) Available() bool {
	return p.InStock == nil || *p.InStock
}

// OffersSize reports whether size is one of the product sizes. Products
// without sizes accept only an empty size.
func (p *Product) OffersSize(size string) bool {
	return offers(p.Sizes, size)
}

// OffersColor reports whether color is one of the product colors
func (p *Product) OffersColor(color string) bool {
	return offers(p.Colors, color)
}

func offers(options []string, value string) bool {
	if len(options) == 0 {
		return value == ""
	}
	for _, o := range options {
		if strings.EqualFold(o, value) {
			return true
		}
	}
	return false
}

// Event is a school event that sells tickets
type Event struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Date        *time.Time      `json:"date,omitempty"`
	Location    string          `json:"location,omitempty"`
	TicketPrice decimal.Decimal `json:"ticketPrice"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// Validate checks the fields an event needs to sell tickets
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return errors.New("event title is required")
	}
	if e.TicketPrice.IsNegative() {
		return errors.New("ticket price cannot be negative")
	}
	return nil
}

// UploadedFile describes a file accepted by the upload endpoint
type UploadedFile struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	UploadedAt   time.Time `json:"uploadedAt"`
}
