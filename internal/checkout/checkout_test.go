package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenleaf-shop/server/internal/catalog"
	errx "github.com/greenleaf-shop/server/internal/core/error"
	"github.com/greenleaf-shop/server/internal/order"
	"github.com/greenleaf-shop/server/internal/pricing"
)

func newTestService(t *testing.T) (*Service, *order.Store) {
	t.Helper()
	store := order.NewStore(order.NewCollection(""),
		order.WithClock(func() time.Time { return time.Date(2025, 10, 31, 9, 0, 0, 0, time.UTC) }),
	)
	return NewService(catalog.MustDefault(), store), store
}

func address() order.Address {
	return order.Address{
		FullName:   "Asha Rao",
		Phone:      "9876543210",
		Street:     "12 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
	}
}

func TestQuoteUsesCatalogPrices(t *testing.T) {
	svc, _ := newTestService(t)

	q, err := svc.Quote(context.Background(), []CartItem{
		{ProductID: "1", Quantity: 1, Price: 1},
		{ProductID: "4", Quantity: 1, Name: "Cheap Palm", Price: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, 1098.0, q.Subtotal)
	assert.Equal(t, 219.0, q.Discount)
	assert.Equal(t, 0.0, q.Shipping)
	assert.Equal(t, 879.0, q.Total)
	require.Len(t, q.Items, 2)
	assert.Equal(t, "Areca Palm", q.Items[1].Name)
	assert.Equal(t, 799.0, q.Items[1].LineTotal)
}

func TestQuoteMergesDuplicates(t *testing.T) {
	svc, _ := newTestService(t)

	q, err := svc.Quote(context.Background(), []CartItem{
		{ProductID: "1", Quantity: 1},
		{ProductID: "7", Quantity: 1},
		{ProductID: "1", Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, q.Items, 2)
	assert.Equal(t, "1", q.Items[0].ProductID)
	assert.Equal(t, 3, q.Items[0].Quantity)
	assert.Equal(t, 897.0, q.Items[0].LineTotal)
}

func TestQuoteRejectsBadItems(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := map[string][]CartItem{
		"empty":         nil,
		"unknown":       {{ProductID: "999", Quantity: 1}},
		"zero quantity": {{ProductID: "1", Quantity: 0}},
		"missing id":    {{ProductID: " ", Quantity: 1}},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Quote(ctx, items)
			assert.ErrorIs(t, err, errx.ErrInvalidInput)
		})
	}
}

func TestQuoteRejectsOutOfStock(t *testing.T) {
	cat, err := catalog.New([]catalog.Product{
		{ID: "a", Name: "Sold Out Fern", Price: 100, InStock: false},
	})
	require.NoError(t, err)
	svc := NewService(cat, order.NewStore(order.NewCollection("")))

	_, err = svc.Quote(context.Background(), []CartItem{{ProductID: "a", Quantity: 1}})
	assert.ErrorIs(t, err, errx.ErrInvalidInput)
}

func TestPlaceStoresRepricedOrder(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	o, err := svc.Place(ctx, "user-1", Request{
		Items:           []CartItem{{ProductID: "1", Quantity: 1}, {ProductID: "4", Quantity: 1}},
		DeliveryAddress: address(),
		PaymentMethod:   "upi",
		CouponCode:      "GREEN10",
		ClientPricing:   &pricing.Breakdown{Subtotal: 2, Discount: 0, Shipping: 0, Total: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, PaymentUPI, o.PaymentMethod)
	assert.Equal(t, 879.0, o.Total)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, "2025-11-07", o.DeliveryDate)
	assert.Equal(t, "Money Plant", o.Items[0].Name)
	assert.Equal(t, 299.0, o.Items[0].Price)

	stored, err := store.Get(ctx, "user-1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, stored.ID)
}

func TestPlaceRejectsInvalidDetails(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	items := []CartItem{{ProductID: "1", Quantity: 1}}

	badAddress := address()
	badAddress.Phone = "123"

	_, err := svc.Place(ctx, "user-1", Request{Items: items, DeliveryAddress: badAddress, PaymentMethod: "cod"})
	assert.ErrorIs(t, err, errx.ErrInvalidInput)

	_, err = svc.Place(ctx, "user-1", Request{Items: items, DeliveryAddress: address(), PaymentMethod: "card"})
	assert.ErrorIs(t, err, errx.ErrInvalidInput)

	_, err = svc.Place(ctx, "user-1", Request{DeliveryAddress: address(), PaymentMethod: "cod"})
	assert.ErrorIs(t, err, errx.ErrInvalidInput)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNormalizePaymentMethod(t *testing.T) {
	for in, want := range map[string]string{
		"upi":              PaymentUPI,
		"UPI Payment":      PaymentUPI,
		" COD ":            PaymentCOD,
		"cash on delivery": PaymentCOD,
	} {
		got, err := NormalizePaymentMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := NormalizePaymentMethod("")
	assert.ErrorIs(t, err, errx.ErrInvalidInput)
}
