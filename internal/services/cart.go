package services

import (
	"fmt"

	"asb-storefront/internal/models"
)

// CartManager applies cart mutations. It wraps the cart loaded from the
// session; callers save Cart() back once they are done.
type CartManager struct {
	cart *models.Cart
}

// NewCartManager wraps cart, starting an empty one when cart is nil
func NewCartManager(cart *models.Cart) *CartManager {
	if cart == nil {
		cart = &models.Cart{}
	}
	return &CartManager{cart: cart}
}

// Cart returns the managed cart
func (m *CartManager) Cart() *models.Cart {
	return m.cart
}

// AddToCart merges item into the line with the same variant key, or appends
// it as a new line
func (m *CartManager) AddToCart(item models.CartLineItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	if i := m.cart.Find(item.Key()); i >= 0 {
		m.cart.Items[i].Quantity += item.Quantity
		return nil
	}

	m.cart.Items = append(m.cart.Items, item)
	return nil
}

// UpdateQuantity adds delta to the quantity of the line with the given key.
// The quantity never drops below 1; removal goes through RemoveFromCart.
func (m *CartManager) UpdateQuantity(key models.VariantKey, delta int) (*models.CartLineItem, error) {
	i := m.cart.Find(key)
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", key.ID, models.ErrCartItemNotFound)
	}

	quantity := m.cart.Items[i].Quantity + delta
	if quantity < 1 {
		quantity = 1
	}
	m.cart.Items[i].Quantity = quantity

	item := m.cart.Items[i]
	return &item, nil
}

// RemoveFromCart deletes the line with the given key. It reports whether a
// line was removed.
func (m *CartManager) RemoveFromCart(key models.VariantKey) bool {
	i := m.cart.Find(key)
	if i < 0 {
		return false
	}
	m.cart.Items = append(m.cart.Items[:i], m.cart.Items[i+1:]...)
	return true
}

// ClearCart empties the cart
func (m *CartManager) ClearCart() {
	m.cart.Items = nil
}

// RemovePaid takes the quantities of a paid snapshot out of the cart. Lines
// added or raised after the snapshot was taken keep the unpaid remainder.
func (m *CartManager) RemovePaid(paid *models.Cart) {
	if paid == nil {
		return
	}
	for _, line := range paid.Items {
		i := m.cart.Find(line.Key())
		if i < 0 {
			continue
		}
		if m.cart.Items[i].Quantity > line.Quantity {
			m.cart.Items[i].Quantity -= line.Quantity
			continue
		}
		m.cart.Items = append(m.cart.Items[:i], m.cart.Items[i+1:]...)
	}
}

// CartCount returns the total quantity across all lines
func (m *CartManager) CartCount() int {
	return m.cart.ItemCount()
}

// Snapshot returns a deep copy of the cart for checkout
func (m *CartManager) Snapshot() *models.Cart {
	return m.cart.Clone()
}
