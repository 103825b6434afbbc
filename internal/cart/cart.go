// Package cart models the shopper's cart. The cart lives with the client
// session; the server only ever sees snapshots of it at quote and checkout
// time and treats those as untrusted.
package cart

import (
	"github.com/greenleaf-shop/server/internal/catalog"
	"github.com/greenleaf-shop/server/internal/pricing"
)

// Item is a cart entry with the product fields denormalized at add time.
type Item struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
}

// Cart is an insertion-ordered list of items. Quantities are always >= 1;
// an item whose quantity would drop below 1 is removed.
type Cart struct {
	items []Item
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// FromItems rebuilds a cart from a snapshot, merging duplicate products and
// dropping entries with a non-positive quantity.
func FromItems(items []Item) *Cart {
	c := New()
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		if i := c.index(it.ProductID); i >= 0 {
			c.items[i].Quantity += it.Quantity
			continue
		}
		c.items = append(c.items, it)
	}
	return c
}

// Add puts qty units of p in the cart, increasing the quantity when the
// product is already present. Non-positive quantities are ignored.
func (c *Cart) Add(p catalog.Product, qty int) {
	if qty <= 0 {
		return
	}
	if i := c.index(p.ID); i >= 0 {
		c.items[i].Quantity += qty
		return
	}
	c.items = append(c.items, Item{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		Quantity:  qty,
	})
}

// SetQuantity replaces the quantity of a product; qty <= 0 removes it.
// It reports whether the product was in the cart.
func (c *Cart) SetQuantity(productID string, qty int) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	if qty <= 0 {
		c.removeAt(i)
		return true
	}
	c.items[i].Quantity = qty
	return true
}

// Decrement removes one unit, removing the entry when it was the last one.
func (c *Cart) Decrement(productID string) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	return c.SetQuantity(productID, c.items[i].Quantity-1)
}

// Remove drops a product regardless of quantity.
func (c *Cart) Remove(productID string) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.removeAt(i)
	return true
}

// Clear empties the cart; called after a successful checkout.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the entries in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Count is the total number of units in the cart.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// IsEmpty reports whether the cart holds no items.
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Lines converts the cart to pricing input.
func (c *Cart) Lines() []pricing.Line {
	out := make([]pricing.Line, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, pricing.Line{Price: it.Price, Quantity: it.Quantity})
	}
	return out
}

// Quote prices the cart with the storefront pricing rules.
func (c *Cart) Quote() pricing.Breakdown {
	return pricing.Quote(c.Lines())
}

func (c *Cart) index(productID string) int {
	for i, it := range c.items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.items = append(c.items[:i], c.items[i+1:]...)
}
