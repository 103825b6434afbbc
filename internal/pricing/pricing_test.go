package pricing

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteExampleCart(t *testing.T) {
	got := Quote([]Line{{Price: 299, Quantity: 1}, {Price: 799, Quantity: 1}})

	assert.Equal(t, Breakdown{Subtotal: 1098, Discount: 219, Shipping: 0, Total: 879}, got)
}

func TestQuoteEmptyCart(t *testing.T) {
	assert.Equal(t, Breakdown{}, Quote(nil))
}

func TestQuoteMultipliesQuantities(t *testing.T) {
	got := Quote([]Line{{Price: 199, Quantity: 3}, {Price: 149, Quantity: 2}})

	assert.Equal(t, 895.0, got.Subtotal)
	assert.Equal(t, 179.0, got.Discount)
	assert.Equal(t, 716.0, got.Total)
}

func TestQuoteFloorsFractionalPrices(t *testing.T) {
	// 0.1 * 3 is not exact in binary floating point; decimal keeps it exact.
	got := Quote([]Line{{Price: 0.1, Quantity: 3}, {Price: 10.45, Quantity: 1}})

	assert.Equal(t, 10.75, got.Subtotal)
	assert.Equal(t, 2.0, got.Discount)
	assert.Equal(t, 8.75, got.Total)
}

func TestQuoteIgnoresInvalidLines(t *testing.T) {
	got := Quote([]Line{{Price: 100, Quantity: 0}, {Price: -5, Quantity: 2}, {Price: 50, Quantity: 1}})

	assert.Equal(t, 50.0, got.Subtotal)
	assert.Equal(t, 10.0, got.Discount)
}

func TestQuoteTotalIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		var lines []Line
		n := rng.Intn(6)
		for j := 0; j < n; j++ {
			lines = append(lines, Line{Price: float64(1 + rng.Intn(1500)), Quantity: 1 + rng.Intn(5)})
		}

		got := Quote(lines)
		assert.Equal(t, math.Floor(got.Subtotal*0.2), got.Discount)
		assert.Equal(t, 0.0, got.Shipping)
		assert.Equal(t, got.Subtotal-got.Discount, got.Total)
		assert.GreaterOrEqual(t, got.Total, 0.0)
	}
}

func TestBreakdownMatches(t *testing.T) {
	server := Quote([]Line{{Price: 299, Quantity: 1}})

	assert.True(t, server.Matches(Breakdown{Subtotal: 299, Discount: 59, Shipping: 0, Total: 240}))
	assert.False(t, server.Matches(Breakdown{Subtotal: 299, Discount: 0, Shipping: 0, Total: 299}))
}
