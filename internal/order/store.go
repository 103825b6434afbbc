package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	errx "github.com/greenleaf-shop/server/internal/core/error"
	"github.com/greenleaf-shop/server/internal/storage/jsonfile"
	logx "github.com/greenleaf-shop/server/pkg/logger"
)

// DefaultDeliveryLeadTime is added to the creation time to estimate delivery.
const DefaultDeliveryLeadTime = 7 * 24 * time.Hour

// Store persists orders and scopes every read to the owning user.
type Store struct {
	orders   *jsonfile.Collection[Order]
	leadTime time.Duration
	now      func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithDeliveryLeadTime(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.leadTime = d
		}
	}
}

// NewCollection opens the orders collection at path ("" keeps it in memory).
func NewCollection(path string) *jsonfile.Collection[Order] {
	if path == "" {
		return jsonfile.NewMemory[Order]()
	}
	return jsonfile.New[Order](path)
}

func NewStore(orders *jsonfile.Collection[Order], opts ...Option) *Store {
	s := &Store{
		orders:   orders,
		leadTime: DefaultDeliveryLeadTime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateNewOrder(in NewOrder) error {
	if strings.TrimSpace(in.UserID) == "" {
		return errx.Unauthenticated("user not authenticated")
	}
	if len(in.Items) == 0 {
		return errx.InvalidInput("items are required")
	}
	for _, it := range in.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return errx.InvalidInput("every item needs a product id")
		}
		if it.Quantity < 1 {
			return errx.InvalidInput("item quantity must be at least 1")
		}
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return errx.InvalidInput("delivery address and payment method are required")
	}
	return in.Address.Validate()
}

// Create validates and persists a new pending order.
func (s *Store) Create(_ context.Context, in NewOrder) (Order, error) {
	if err := validateNewOrder(in); err != nil {
		return Order{}, err
	}

	now := s.now().UTC()
	o := Order{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		Items:           append([]Item(nil), in.Items...),
		Subtotal:        in.Pricing.Subtotal,
		Discount:        in.Pricing.Discount,
		Shipping:        in.Pricing.Shipping,
		Total:           in.Pricing.Total,
		Status:          StatusPending,
		DeliveryAddress: in.Address.Normalize(),
		PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
		CreatedAt:       now,
		DeliveryDate:    now.Add(s.leadTime).Format(DeliveryDateLayout),
	}

	err := s.orders.Update(func(items []Order) ([]Order, error) {
		return append(items, o), nil
	})
	if err != nil {
		logx.Error().Err(err).Str("user_id", in.UserID).Msg("failed to persist order")
		return Order{}, errx.Internal(err)
	}

	logx.Info().Str("order_id", o.ID).Str("user_id", o.UserID).Float64("total", o.Total).Msg("order created")
	return o, nil
}

// List returns the user's orders in creation order.
func (s *Store) List(_ context.Context, userID string) ([]Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errx.Unauthenticated("user not authenticated")
	}
	orders, err := s.orders.Filter(func(o Order) bool { return o.UserID == userID })
	if err != nil {
		logx.Error().Err(err).Str("user_id", userID).Msg("failed to load orders")
		return nil, errx.Internal(err)
	}
	return orders, nil
}

// Get returns an order only when it belongs to userID. A foreign order is
// reported exactly like a missing one.
func (s *Store) Get(_ context.Context, userID, orderID string) (Order, error) {
	if strings.TrimSpace(userID) == "" {
		return Order{}, errx.Unauthenticated("user not authenticated")
	}
	o, ok, err := s.orders.Find(func(o Order) bool {
		return o.ID == orderID && o.UserID == userID
	})
	if err != nil {
		logx.Error().Err(err).Str("order_id", orderID).Msg("failed to load order")
		return Order{}, errx.Internal(err)
	}
	if !ok {
		return Order{}, errx.NotFound("order not found")
	}
	return o, nil
}

// Count returns the number of stored orders across all users.
func (s *Store) Count(_ context.Context) (int, error) {
	all, err := s.orders.All()
	if err != nil {
		return 0, errx.Internal(err)
	}
	return len(all), nil
}

// IsNotFound reports whether err means the order does not exist for the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, errx.ErrNotFound)
}
