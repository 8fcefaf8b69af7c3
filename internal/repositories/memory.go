package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"asb-storefront/internal/models"

	"github.com/google/uuid"
)

// MemoryDocumentRepository keeps documents in process memory. It backs the
// server when no database is reachable and is used throughout the tests.
type MemoryDocumentRepository struct {
	mu          sync.RWMutex
	collections map[string]map[string]*models.Document
	now         func() time.Time
}

// NewMemoryDocumentRepository creates an empty in-memory repository
func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{
		collections: make(map[string]map[string]*models.Document),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryDocumentRepository) List(ctx context.Context, collection string, limit, offset int) ([]*models.Document, int, error) {
	limit, offset = normalizePage(limit, offset)

	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*models.Document, 0, len(r.collections[collection]))
	for _, doc := range r.collections[collection] {
		all = append(all, cloneDocument(doc))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if offset >= total {
		return []*models.Document{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *MemoryDocumentRepository) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s document %q: %w", collection, id, models.ErrNotFound)
	}
	return cloneDocument(doc), nil
}

func (r *MemoryDocumentRepository) Create(ctx context.Context, collection string, data json.RawMessage) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return cloneDocument(r.insert(collection, data, nil)), nil
}

func (r *MemoryDocumentRepository) CreateIdempotent(ctx context.Context, collection, key string, data json.RawMessage) (*models.Document, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, doc := range r.collections[collection] {
		if doc.IdempotencyKey != nil && *doc.IdempotencyKey == key {
			return cloneDocument(doc), false, nil
		}
	}
	return cloneDocument(r.insert(collection, data, &key)), true, nil
}

func (r *MemoryDocumentRepository) Update(ctx context.Context, collection, id string, data json.RawMessage) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s document %q: %w", collection, id, models.ErrNotFound)
	}
	doc.Data = append(json.RawMessage(nil), data...)
	doc.UpdatedAt = r.now()
	return cloneDocument(doc), nil
}

func (r *MemoryDocumentRepository) Delete(ctx context.Context, collection, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.collections[collection][id]; !ok {
		return fmt.Errorf("%s document %q: %w", collection, id, models.ErrNotFound)
	}
	delete(r.collections[collection], id)
	return nil
}

func (r *MemoryDocumentRepository) Ping(ctx context.Context) error {
	return nil
}

// insert must be called with the write lock held
func (r *MemoryDocumentRepository) insert(collection string, data json.RawMessage, key *string) *models.Document {
	if r.collections[collection] == nil {
		r.collections[collection] = make(map[string]*models.Document)
	}
	now := r.now()
	doc := &models.Document{
		ID:             uuid.NewString(),
		Collection:     collection,
		Data:           append(json.RawMessage(nil), data...),
		IdempotencyKey: key,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.collections[collection][doc.ID] = doc
	return doc
}

func cloneDocument(doc *models.Document) *models.Document {
	clone := *doc
	clone.Data = append(json.RawMessage(nil), doc.Data...)
	if doc.IdempotencyKey != nil {
		key := *doc.IdempotencyKey
		clone.IdempotencyKey = &key
	}
	return &clone
}
