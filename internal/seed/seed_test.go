package seed

import (
	"context"
	"testing"
	"time"

	"asb-storefront/internal/models"
	"asb-storefront/internal/repositories"
	"asb-storefront/internal/services"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	logger, _ := test.NewNullLogger()
	catalog := services.NewCatalogService(repositories.NewMemoryDocumentRepository(), logger)
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	created, err := Run(ctx, catalog, now, logger)
	require.NoError(t, err)
	assert.Equal(t, len(Products())+len(Events(now))+len(Announcements()), created)

	products, err := catalog.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, len(Products()))

	// a second run leaves populated collections alone
	created, err = Run(ctx, catalog, now, logger)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestEvents_AreSellable(t *testing.T) {
	logger, _ := test.NewNullLogger()
	catalog := services.NewCatalogService(repositories.NewMemoryDocumentRepository(), logger)
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	_, err := Run(ctx, catalog, now, logger)
	require.NoError(t, err)

	docs, _, err := catalog.List(ctx, models.CollectionEvents, 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, docs)

	item, err := catalog.ResolveCartItem(ctx, services.CartItemRequest{
		ID:   models.ItemID(docs[0]["id"].(string)),
		Kind: models.KindEventTicket,
	})
	require.NoError(t, err)
	assert.Contains(t, item.Name, "Ticket")
	assert.True(t, item.Price.IsPositive())
}
