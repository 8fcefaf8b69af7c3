package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"asb-storefront/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const documentColumns = `id, collection, data, idempotency_key, created_at, updated_at`

// DocumentRepository stores collection documents as JSONB rows
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// List returns a page of documents of a collection, newest first, and the
// total number of documents in the collection
func (r *DocumentRepository) List(ctx context.Context, collection string, limit, offset int) ([]*models.Document, int, error) {
	limit, offset = normalizePage(limit, offset)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM documents WHERE collection = $1`, collection); err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}

	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE collection = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`

	docs := []*models.Document{}
	if err := r.db.SelectContext(ctx, &docs, query, collection, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", collection, err)
	}

	return docs, total, nil
}

// Get retrieves a document by id
func (r *DocumentRepository) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s document %q: %w", collection, id, models.ErrNotFound)
	}

	query := `SELECT ` + documentColumns + ` FROM documents WHERE collection = $1 AND id = $2`

	doc := &models.Document{}
	err := r.db.GetContext(ctx, doc, query, collection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s document %q: %w", collection, id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s document: %w", collection, err)
	}

	return doc, nil
}

// Create inserts a new document with a generated id
func (r *DocumentRepository) Create(ctx context.Context, collection string, data json.RawMessage) (*models.Document, error) {
	query := `
		INSERT INTO documents (id, collection, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING ` + documentColumns

	doc := &models.Document{}
	now := time.Now().UTC()
	if err := r.db.GetContext(ctx, doc, query, uuid.NewString(), collection, []byte(data), now); err != nil {
		return nil, fmt.Errorf("failed to create %s document: %w", collection, err)
	}

	return doc, nil
}

// CreateIdempotent inserts a document unless one with the same idempotency
// key already exists in the collection, in which case the existing document
// is returned and created is false.
func (r *DocumentRepository) CreateIdempotent(ctx context.Context, collection, key string, data json.RawMessage) (*models.Document, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO documents (id, collection, data, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (collection, idempotency_key) WHERE idempotency_key IS NOT NULL DO NOTHING
		RETURNING ` + documentColumns

	doc := &models.Document{}
	now := time.Now().UTC()
	err = tx.GetContext(ctx, doc, insert, uuid.NewString(), collection, []byte(data), key, now)
	created := true
	if errors.Is(err, sql.ErrNoRows) {
		created = false
		existing := `SELECT ` + documentColumns + ` FROM documents WHERE collection = $1 AND idempotency_key = $2`
		err = tx.GetContext(ctx, doc, existing, collection, key)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create %s document: %w", collection, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit %s document: %w", collection, err)
	}

	return doc, created, nil
}

// Update replaces the body of an existing document
func (r *DocumentRepository) Update(ctx context.Context, collection, id string, data json.RawMessage) (*models.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s document %q: %w", collection, id, models.ErrNotFound)
	}

	query := `
		UPDATE documents
		SET data = $3, updated_at = $4
		WHERE collection = $1 AND id = $2
		RETURNING ` + documentColumns

	doc := &models.Document{}
	err := r.db.GetContext(ctx, doc, query, collection, id, []byte(data), time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s document %q: %w", collection, id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update %s document: %w", collection, err)
	}

	return doc, nil
}

// Delete removes a document
func (r *DocumentRepository) Delete(ctx context.Context, collection, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s document %q: %w", collection, id, models.ErrNotFound)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s document: %w", collection, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s document %q: %w", collection, id, models.ErrNotFound)
	}

	return nil
}

// Ping checks the database connection
func (r *DocumentRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
