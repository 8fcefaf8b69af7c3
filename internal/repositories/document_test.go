package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"asb-storefront/internal/database"
	"asb-storefront/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDocumentRepository connects to TEST_DATABASE_URL and applies the
// migrations. Each test writes to its own collection.
func newTestDocumentRepository(t *testing.T) (*DocumentRepository, string) {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL repository tests")
	}

	db, err := database.NewConnection(database.Config{URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())

	collection := "test_" + uuid.NewString()[:8]
	t.Cleanup(func() {
		db.Exec(`DELETE FROM documents WHERE collection = $1`, collection)
	})

	return NewDocumentRepository(db.DB), collection
}

func TestDocumentRepository_CRUD(t *testing.T) {
	repo, collection := newTestDocumentRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))

	doc, err := repo.Create(ctx, collection, json.RawMessage(`{"name":"Robotics"}`))
	require.NoError(t, err)
	_, err = uuid.Parse(doc.ID)
	require.NoError(t, err)

	got, err := repo.Get(ctx, collection, doc.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Robotics"}`, string(got.Data))

	updated, err := repo.Update(ctx, collection, doc.ID, json.RawMessage(`{"name":"Robotics Club"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Robotics Club"}`, string(updated.Data))
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	docs, total, err := repo.List(ctx, collection, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, docs, 1)

	require.NoError(t, repo.Delete(ctx, collection, doc.ID))
	assert.True(t, errors.Is(repo.Delete(ctx, collection, doc.ID), models.ErrNotFound))

	_, err = repo.Get(ctx, collection, doc.ID)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestDocumentRepository_InvalidIDIsNotFound(t *testing.T) {
	repo, collection := newTestDocumentRepository(t)

	_, err := repo.Get(context.Background(), collection, "not-a-uuid")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestDocumentRepository_CreateIdempotent(t *testing.T) {
	repo, collection := newTestDocumentRepository(t)
	ctx := context.Background()
	key := "tok_" + uuid.NewString()

	first, created, err := repo.CreateIdempotent(ctx, collection, key, json.RawMessage(`{"total":"43.50"}`))
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.CreateIdempotent(ctx, collection, key, json.RawMessage(`{"total":"1.00"}`))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.JSONEq(t, `{"total":"43.50"}`, string(second.Data))
}
