// Package pricing turns a cart snapshot into the amounts charged at checkout.
package pricing

import (
	"github.com/shopspring/decimal"
)

// DiscountRate is the flat subscription discount applied to every cart.
var DiscountRate = decimal.NewFromFloat(0.20)

// Line is one priced cart entry.
type Line struct {
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Breakdown is the result of pricing a cart.
type Breakdown struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// Quote prices lines. Discount is the floor of 20% of the subtotal and
// shipping is always free, so total = subtotal - discount.
// Lines with a non-positive quantity or negative price contribute nothing.
func Quote(lines []Line) Breakdown {
	subtotal := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 || l.Price < 0 {
			continue
		}
		subtotal = subtotal.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	discount := subtotal.Mul(DiscountRate).Floor()
	shipping := decimal.Zero
	total := subtotal.Sub(discount).Add(shipping)

	return Breakdown{
		Subtotal: subtotal.InexactFloat64(),
		Discount: discount.InexactFloat64(),
		Shipping: shipping.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}
}

// Matches reports whether a client-supplied breakdown agrees with b to the cent.
func (b Breakdown) Matches(other Breakdown) bool {
	eq := func(x, y float64) bool {
		return decimal.NewFromFloat(x).Round(2).Equal(decimal.NewFromFloat(y).Round(2))
	}
	return eq(b.Subtotal, other.Subtotal) &&
		eq(b.Discount, other.Discount) &&
		eq(b.Shipping, other.Shipping) &&
		eq(b.Total, other.Total)
}
