package services

import (
	"errors"
	"testing"

	"asb-storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hoodie(size string, quantity int) models.CartLineItem {
	return models.CartLineItem{
		ID:       "hoodie",
		Name:     "ASB Hoodie",
		Price:    decimal.RequireFromString("20.00"),
		Quantity: quantity,
		Size:     size,
		Color:    "Navy",
		Kind:     models.KindProduct,
	}
}

func TestCartManager_AddToCart_MergesSameVariant(t *testing.T) {
	manager := NewCartManager(nil)

	require.NoError(t, manager.AddToCart(hoodie("M", 1)))
	require.NoError(t, manager.AddToCart(hoodie("M", 2)))

	cart := manager.Cart()
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 3, manager.CartCount())
}

func TestCartManager_AddToCart_KeepsVariantsApart(t *testing.T) {
	manager := NewCartManager(nil)

	require.NoError(t, manager.AddToCart(hoodie("M", 1)))
	require.NoError(t, manager.AddToCart(hoodie("L", 1)))

	other := hoodie("M", 1)
	other.Color = "Gold"
	require.NoError(t, manager.AddToCart(other))

	assert.Len(t, manager.Cart().Items, 3)
	assert.Equal(t, 3, manager.CartCount())
}

func TestCartManager_AddToCart_RejectsInvalidItem(t *testing.T) {
	manager := NewCartManager(nil)

	item := hoodie("M", 0)
	err := manager.AddToCart(item)

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
	assert.True(t, manager.Cart().IsEmpty())
}

func TestCartManager_Totals(t *testing.T) {
	manager := NewCartManager(nil)
	require.NoError(t, manager.AddToCart(hoodie("M", 2)))

	cart := manager.Cart()
	assert.Equal(t, "40.00", cart.Subtotal().StringFixed(2))
	assert.Equal(t, "3.50", cart.Tax(models.DefaultTaxRate).StringFixed(2))
	assert.Equal(t, "43.50", cart.Total(models.DefaultTaxRate).StringFixed(2))
}

func TestCartManager_TaxRoundsToCent(t *testing.T) {
	manager := NewCartManager(nil)
	item := hoodie("", 1)
	item.Price = decimal.RequireFromString("9.99")
	require.NoError(t, manager.AddToCart(item))

	cart := manager.Cart()
	// 9.99 * 0.0875 = 0.874125
	assert.Equal(t, "0.87", cart.Tax(models.DefaultTaxRate).StringFixed(2))
	assert.Equal(t, "10.86", cart.Total(models.DefaultTaxRate).StringFixed(2))
}

func TestCartManager_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		delta    int
		expected int
	}{
		{name: "increment", start: 1, delta: 1, expected: 2},
		{name: "decrement", start: 3, delta: -1, expected: 2},
		{name: "clamps at one", start: 1, delta: -1, expected: 1},
		{name: "large negative delta clamps", start: 4, delta: -10, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewCartManager(nil)
			require.NoError(t, manager.AddToCart(hoodie("M", tt.start)))

			item, err := manager.UpdateQuantity(hoodie("M", 1).Key(), tt.delta)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, item.Quantity)
			assert.Equal(t, tt.expected, manager.CartCount())
			assert.Len(t, manager.Cart().Items, 1)
		})
	}
}

func TestCartManager_UpdateQuantity_MissingItem(t *testing.T) {
	manager := NewCartManager(nil)

	_, err := manager.UpdateQuantity(models.VariantKey{ID: "nope"}, 1)
	assert.True(t, errors.Is(err, models.ErrCartItemNotFound))
}

func TestCartManager_RemoveThenAdd(t *testing.T) {
	manager := NewCartManager(nil)
	require.NoError(t, manager.AddToCart(hoodie("M", 2)))

	assert.True(t, manager.RemoveFromCart(hoodie("M", 1).Key()))
	assert.False(t, manager.RemoveFromCart(hoodie("M", 1).Key()))
	assert.True(t, manager.Cart().IsEmpty())

	require.NoError(t, manager.AddToCart(hoodie("M", 1)))
	require.Len(t, manager.Cart().Items, 1)
	assert.Equal(t, 1, manager.Cart().Items[0].Quantity)
}

func TestCartManager_ClearCart(t *testing.T) {
	manager := NewCartManager(nil)
	require.NoError(t, manager.AddToCart(hoodie("M", 2)))

	manager.ClearCart()

	assert.True(t, manager.Cart().IsEmpty())
	assert.Equal(t, 0, manager.CartCount())
}

func TestCartManager_SnapshotIsIndependent(t *testing.T) {
	manager := NewCartManager(nil)
	require.NoError(t, manager.AddToCart(hoodie("M", 1)))

	snapshot := manager.Snapshot()
	require.NoError(t, manager.AddToCart(hoodie("M", 4)))
	manager.ClearCart()

	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, 1, snapshot.Items[0].Quantity)
}

func TestCartManager_RemovePaid(t *testing.T) {
	manager := NewCartManager(nil)
	require.NoError(t, manager.AddToCart(hoodie("M", 2)))
	require.NoError(t, manager.AddToCart(hoodie("S", 1)))
	paid := manager.Snapshot()

	require.NoError(t, manager.AddToCart(hoodie("M", 1)))
	require.NoError(t, manager.AddToCart(hoodie("L", 1)))
	manager.RemovePaid(paid)

	items := manager.Cart().Items
	require.Len(t, items, 2)
	assert.Equal(t, models.VariantKey{ID: "hoodie", Size: "M", Color: "Navy"}, items[0].Key())
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, "L", items[1].Size)

	manager.RemovePaid(nil)
	assert.Equal(t, 2, manager.CartCount())
}
