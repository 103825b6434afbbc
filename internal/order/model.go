package order

import (
	"strings"
	"time"
	"unicode"

	errx "github.com/greenleaf-shop/server/internal/core/error"
	"github.com/greenleaf-shop/server/internal/pricing"
)

// Status is the fulfillment state of an order. Orders are created pending and
// no transitions are implemented yet.
type Status string

// Only StatusPending is assigned today; the others are reserved for
// fulfillment updates.
const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
)

// DeliveryDateLayout is the wire format of Order.DeliveryDate.
const DeliveryDateLayout = "2006-01-02"

// MinPhoneDigits is the shortest phone number accepted for delivery.
const MinPhoneDigits = 10

// Item is a line snapshotted at order time, independent of later catalog changes.
type Item struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Address is where the order is delivered.
type Address struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Street     string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"pincode"`
}

// Normalize trims every field.
func (a Address) Normalize() Address {
	return Address{
		FullName:   strings.TrimSpace(a.FullName),
		Phone:      strings.TrimSpace(a.Phone),
		Street:     strings.TrimSpace(a.Street),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
	}
}

// Validate requires every field and a phone number with enough digits.
func (a Address) Validate() error {
	a = a.Normalize()
	if a.FullName == "" || a.Phone == "" || a.Street == "" || a.City == "" || a.State == "" || a.PostalCode == "" {
		return errx.InvalidInput("delivery address is incomplete")
	}
	digits := 0
	for _, r := range a.Phone {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits < MinPhoneDigits {
		return errx.InvalidInput("please enter a valid phone number")
	}
	return nil
}

// Order is an immutable record of a completed checkout.
type Order struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Items           []Item    `json:"items"`
	Subtotal        float64   `json:"subtotal"`
	Discount        float64   `json:"discount"`
	Shipping        float64   `json:"shipping"`
	Total           float64   `json:"total"`
	Status          Status    `json:"status"`
	DeliveryAddress Address   `json:"deliveryAddress"`
	PaymentMethod   string    `json:"paymentMethod"`
	CreatedAt       time.Time `json:"createdAt"`
	DeliveryDate    string    `json:"deliveryDate"`
}

// Pricing returns the amounts charged for the order.
func (o Order) Pricing() pricing.Breakdown {
	return pricing.Breakdown{
		Subtotal: o.Subtotal,
		Discount: o.Discount,
		Shipping: o.Shipping,
		Total:    o.Total,
	}
}

// NewOrder is the input to Store.Create.
type NewOrder struct {
	UserID        string
	Items         []Item
	Pricing       pricing.Breakdown
	Address       Address
	PaymentMethod string
}
