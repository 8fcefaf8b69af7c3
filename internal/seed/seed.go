package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"asb-storefront/internal/models"
	"asb-storefront/internal/services"

	"github.com/sirupsen/logrus"
)

// Store is the part of the catalog the seeder writes through
type Store interface {
	List(ctx context.Context, collection string, limit, offset int) ([]map[string]interface{}, int, error)
	Create(ctx context.Context, collection string, body []byte) (map[string]interface{}, error)
}

var _ Store = (*services.CatalogService)(nil)

// Products is the sample merchandise of a fresh store
func Products() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"name":        "ASB Spirit T-Shirt",
			"description": "Soft cotton tee with the school crest.",
			"price":       "20.00",
			"category":    "apparel",
			"sizes":       []string{"S", "M", "L", "XL"},
			"colors":      []string{"Gold", "Navy"},
		},
		{
			"name":        "ASB Hoodie",
			"description": "Heavyweight pullover hoodie.",
			"price":       "35.00",
			"category":    "apparel",
			"sizes":       []string{"S", "M", "L", "XL"},
			"colors":      []string{"Navy"},
		},
		{
			"name":     "Water Bottle",
			"price":    "12.50",
			"category": "accessories",
		},
		{
			"name":     "Enamel Pin",
			"price":    "4.00",
			"category": "accessories",
			"inStock":  false,
		},
	}
}

// Events is the sample ticketed events of a fresh store, dated from now
func Events(now time.Time) []map[string]interface{} {
	day := now.UTC().Truncate(24 * time.Hour)
	return []map[string]interface{}{
		{
			"title":       "Homecoming Dance",
			"description": "Semi-formal dance in the main gym.",
			"date":        day.AddDate(0, 0, 21).Add(19 * time.Hour),
			"location":    "Main Gym",
			"ticketPrice": "15.00",
		},
		{
			"title":       "Winter Concert",
			"description": "Band and choir showcase.",
			"date":        day.AddDate(0, 2, 0).Add(18 * time.Hour),
			"location":    "Performing Arts Center",
			"ticketPrice": "8.00",
		},
	}
}

// Announcements is the sample news feed of a fresh store
func Announcements() []map[string]interface{} {
	return []map[string]interface{}{
		{"title": "Spirit Week", "body": "Wear school colors all week long!"},
		{"title": "Student Store Hours", "body": "Open at lunch Monday through Thursday."},
	}
}

// Run inserts the sample documents into empty collections and returns how
// many documents were created
func Run(ctx context.Context, store Store, now time.Time, logger logrus.FieldLogger) (int, error) {
	sets := []struct {
		collection string
		docs       []map[string]interface{}
	}{
		{models.CollectionProducts, Products()},
		{models.CollectionEvents, Events(now)},
		{models.CollectionAnnouncements, Announcements()},
	}

	created := 0
	for _, set := range sets {
		_, total, err := store.List(ctx, set.collection, 1, 0)
		if err != nil {
			return created, fmt.Errorf("failed to inspect %s: %w", set.collection, err)
		}
		if total > 0 {
			logger.WithField("collection", set.collection).Info("Collection already has documents, skipping")
			continue
		}

		for _, doc := range set.docs {
			body, err := json.Marshal(doc)
			if err != nil {
				return created, fmt.Errorf("failed to encode %s document: %w", set.collection, err)
			}
			if _, err := store.Create(ctx, set.collection, body); err != nil {
				return created, fmt.Errorf("failed to seed %s: %w", set.collection, err)
			}
			created++
		}

		logger.WithFields(logrus.Fields{
			"collection": set.collection,
			"count":      len(set.docs),
		}).Info("Seeded collection")
	}

	return created, nil
}
