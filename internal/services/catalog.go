package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"asb-storefront/internal/models"

	"github.com/sirupsen/logrus"
)

// CartItemRequest is what a client sends to put an item in the cart. Name
// and price are always taken from the catalog.
type CartItemRequest struct {
	ID       models.ItemID   `json:"id"`
	Kind     models.ItemKind `json:"kind"`
	Size     string          `json:"size"`
	Color    string          `json:"color"`
	Quantity int             `json:"quantity"`
	EventID  models.ItemID   `json:"eventId"`
}

// CatalogService serves the document collections and resolves cart items
// against products and events
type CatalogService struct {
	repo   DocumentRepository
	logger logrus.FieldLogger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo DocumentRepository, logger logrus.FieldLogger) *CatalogService {
	return &CatalogService{
		repo:   repo,
		logger: logger.WithField("component", "catalog"),
	}
}

// List returns a page of flattened documents and the collection total
func (s *CatalogService) List(ctx context.Context, collection string, limit, offset int) ([]map[string]interface{}, int, error) {
	if !models.IsKnownCollection(collection) {
		return nil, 0, fmt.Errorf("%q: %w", collection, models.ErrUnknownCollection)
	}

	docs, total, err := s.repo.List(ctx, collection, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	items := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		body, err := doc.Flatten()
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"collection": collection,
				"id":         doc.ID,
			}).Warn("Skipping malformed document")
			continue
		}
		items = append(items, body)
	}

	return items, total, nil
}

// Get returns one flattened document
func (s *CatalogService) Get(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	if !models.IsKnownCollection(collection) {
		return nil, fmt.Errorf("%q: %w", collection, models.ErrUnknownCollection)
	}

	doc, err := s.repo.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	return doc.Flatten()
}

// Create validates body and stores it as a new document
func (s *CatalogService) Create(ctx context.Context, collection string, body []byte) (map[string]interface{}, error) {
	if !models.IsKnownCollection(collection) {
		return nil, fmt.Errorf("%q: %w", collection, models.ErrUnknownCollection)
	}

	data, err := prepareDocument(collection, body)
	if err != nil {
		return nil, err
	}

	doc, err := s.repo.Create(ctx, collection, data)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"collection": collection, "id": doc.ID}).Info("Document created")
	return doc.Flatten()
}

// Update validates body and replaces the stored document
func (s *CatalogService) Update(ctx context.Context, collection, id string, body []byte) (map[string]interface{}, error) {
	if !models.IsKnownCollection(collection) {
		return nil, fmt.Errorf("%q: %w", collection, models.ErrUnknownCollection)
	}

	data, err := prepareDocument(collection, body)
	if err != nil {
		return nil, err
	}

	doc, err := s.repo.Update(ctx, collection, id, data)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"collection": collection, "id": id}).Info("Document updated")
	return doc.Flatten()
}

// Delete removes a document
func (s *CatalogService) Delete(ctx context.Context, collection, id string) error {
	if !models.IsKnownCollection(collection) {
		return fmt.Errorf("%q: %w", collection, models.ErrUnknownCollection)
	}

	if err := s.repo.Delete(ctx, collection, id); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{"collection": collection, "id": id}).Info("Document deleted")
	return nil
}

// UpdatePurchaseStatus changes the status string of a purchase
func (s *CatalogService) UpdatePurchaseStatus(ctx context.Context, id string, status models.PurchaseStatus) (map[string]interface{}, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%q: %w", status, models.ErrInvalidStatus)
	}

	doc, err := s.repo.Get(ctx, models.CollectionPurchases, id)
	if err != nil {
		return nil, err
	}

	body := make(map[string]interface{})
	if err := decodeObject(doc.Data, &body); err != nil {
		return nil, fmt.Errorf("failed to decode purchase %s: %w", id, err)
	}
	body["status"] = string(status)

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode purchase %s: %w", id, err)
	}

	updated, err := s.repo.Update(ctx, models.CollectionPurchases, id, data)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"id": id, "status": status}).Info("Purchase status updated")
	return updated.Flatten()
}

// ListProducts returns every product of the catalog, skipping documents that
// do not decode
func (s *CatalogService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	docs, _, err := s.repo.List(ctx, models.CollectionProducts, maxCatalogPage, 0)
	if err != nil {
		return nil, err
	}

	products := make([]*models.Product, 0, len(docs))
	for _, doc := range docs {
		product := &models.Product{}
		if err := doc.Decode(product); err != nil {
			s.logger.WithError(err).WithField("id", doc.ID).Warn("Skipping malformed product")
			continue
		}
		products = append(products, product)
	}
	return products, nil
}

// GetProduct returns a product by id
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	doc, err := s.repo.Get(ctx, models.CollectionProducts, id)
	if err != nil {
		return nil, err
	}

	product := &models.Product{}
	if err := doc.Decode(product); err != nil {
		return nil, fmt.Errorf("failed to decode product %s: %w", id, err)
	}
	return product, nil
}

// GetEvent returns an event by id
func (s *CatalogService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	doc, err := s.repo.Get(ctx, models.CollectionEvents, id)
	if err != nil {
		return nil, err
	}

	event := &models.Event{}
	if err := doc.Decode(event); err != nil {
		return nil, fmt.Errorf("failed to decode event %s: %w", id, err)
	}
	return event, nil
}

// ResolveCartItem builds a line item from the catalog entry the request
// points at. Quantities below 1 are raised to 1.
func (s *CatalogService) ResolveCartItem(ctx context.Context, req CartItemRequest) (models.CartLineItem, error) {
	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}
	if req.Kind == "" {
		req.Kind = models.KindProduct
	}

	verr := models.NewValidationError("Unable to add item to cart")
	if req.ID == "" {
		verr.Add("id", "Item id is required")
		return models.CartLineItem{}, verr
	}

	switch req.Kind {
	case models.KindProduct:
		product, err := s.GetProduct(ctx, string(req.ID))
		if err != nil {
			return models.CartLineItem{}, err
		}
		if !product.Available() {
			verr.Add("id", "This item is out of stock")
		}
		if !product.OffersSize(req.Size) {
			verr.Add("size", "Please choose an available size")
		}
		if !product.OffersColor(req.Color) {
			verr.Add("color", "Please choose an available color")
		}
		if verr.HasErrors() {
			return models.CartLineItem{}, verr
		}
		return models.CartLineItem{
			ID:       models.ItemID(product.ID),
			Name:     product.Name,
			Price:    product.Price,
			Quantity: quantity,
			Size:     req.Size,
			Color:    req.Color,
			Kind:     models.KindProduct,
			ImageURL: product.ImageURL,
		}, nil

	case models.KindEventTicket:
		eventID := req.EventID
		if eventID == "" {
			eventID = req.ID
		}
		event, err := s.GetEvent(ctx, string(eventID))
		if err != nil {
			return models.CartLineItem{}, err
		}
		// tickets are keyed by the event so every request for it merges
		return models.CartLineItem{
			ID:       models.ItemID(event.ID),
			Name:     event.Title + " Ticket",
			Price:    event.TicketPrice,
			Quantity: quantity,
			Kind:     models.KindEventTicket,
			EventID:  models.ItemID(event.ID),
			ImageURL: event.ImageURL,
		}, nil
	}

	verr.Add("kind", "Item kind must be product or event-ticket")
	return models.CartLineItem{}, verr
}

const maxCatalogPage = 200

// prepareDocument checks that body is a JSON object of the right shape for
// the collection and strips the server-managed fields
func prepareDocument(collection string, body []byte) (json.RawMessage, error) {
	fields := make(map[string]interface{})
	if err := decodeObject(body, &fields); err != nil {
		verr := models.NewValidationError("Request body must be a JSON object")
		verr.Add("body", err.Error())
		return nil, verr
	}

	delete(fields, "id")
	delete(fields, "createdAt")
	delete(fields, "updatedAt")

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	if err := validateShape(collection, data, fields); err != nil {
		return nil, err
	}
	return data, nil
}

func validateShape(collection string, data []byte, fields map[string]interface{}) error {
	verr := models.NewValidationError("Invalid " + collection + " document")

	switch collection {
	case models.CollectionProducts:
		product := &models.Product{}
		if err := json.Unmarshal(data, product); err != nil {
			verr.Add("body", err.Error())
		} else if err := product.Validate(); err != nil {
			verr.Add(shapeField(err, "name", "price"), err.Error())
		}
	case models.CollectionEvents:
		event := &models.Event{}
		if err := json.Unmarshal(data, event); err != nil {
			verr.Add("body", err.Error())
		} else if err := event.Validate(); err != nil {
			verr.Add(shapeField(err, "title", "ticketPrice"), err.Error())
		}
	case models.CollectionPurchases:
		if raw, ok := fields["status"]; ok {
			status, _ := raw.(string)
			if !models.PurchaseStatus(status).IsValid() {
				verr.Add("status", "Status must be pending, paid or cancelled")
			}
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// shapeField picks the field a Validate error refers to
func shapeField(err error, nameField, priceField string) string {
	if strings.Contains(err.Error(), "price") {
		return priceField
	}
	return nameField
}

func decodeObject(data []byte, v *map[string]interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if *v == nil {
		return errors.New("expected a JSON object")
	}
	return nil
}
