// Package checkout turns an untrusted cart snapshot into a priced order.
// Product names and prices always come from the catalog.
package checkout

import (
	"context"
	"fmt"
	"strings"

	errx "github.com/greenleaf-shop/server/internal/core/error"
	"github.com/greenleaf-shop/server/internal/catalog"
	"github.com/greenleaf-shop/server/internal/order"
	"github.com/greenleaf-shop/server/internal/pricing"
	logx "github.com/greenleaf-shop/server/pkg/logger"
)

const (
	PaymentUPI = "UPI Payment"
	PaymentCOD = "Cash on Delivery"
)

// CartItem is a line as submitted by the client. Name and Price are accepted
// for compatibility and ignored.
type CartItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name,omitempty"`
	Price     float64 `json:"price,omitempty"`
	Quantity  int     `json:"quantity"`
}

// Request is a checkout submission.
type Request struct {
	Items           []CartItem         `json:"items"`
	DeliveryAddress order.Address      `json:"deliveryAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
	CouponCode      string             `json:"couponCode,omitempty"`
	ClientPricing   *pricing.Breakdown `json:"-"`
}

// Line is a catalog-priced cart line.
type Line struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"lineTotal"`
}

// Quote is a re-priced cart.
type Quote struct {
	Items []Line `json:"items"`
	pricing.Breakdown
}

// OrderCreator is the part of the order store checkout depends on.
type OrderCreator interface {
	Create(ctx context.Context, in order.NewOrder) (order.Order, error)
}

type Service struct {
	catalog *catalog.Catalog
	orders  OrderCreator
}

func NewService(cat *catalog.Catalog, orders OrderCreator) *Service {
	return &Service{catalog: cat, orders: orders}
}

// NormalizePaymentMethod maps the accepted spellings to the stored label.
func NormalizePaymentMethod(method string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "upi", "upi payment":
		return PaymentUPI, nil
	case "cod", "cash on delivery":
		return PaymentCOD, nil
	case "":
		return "", errx.InvalidInput("payment method is required")
	default:
		return "", errx.InvalidInput(fmt.Sprintf("unsupported payment method %q", method))
	}
}

// Quote validates items against the catalog and prices them. Duplicate
// product ids are merged in first-seen order.
func (s *Service) Quote(_ context.Context, items []CartItem) (Quote, error) {
	if len(items) == 0 {
		return Quote{}, errx.InvalidInput("items are required")
	}

	var (
		lines []Line
		index = map[string]int{}
	)
	for _, it := range items {
		id := strings.TrimSpace(it.ProductID)
		if id == "" {
			return Quote{}, errx.InvalidInput("every item needs a product id")
		}
		if it.Quantity < 1 {
			return Quote{}, errx.InvalidInput("item quantity must be at least 1")
		}
		if i, ok := index[id]; ok {
			lines[i].Quantity += it.Quantity
			continue
		}

		p, err := s.catalog.Get(id)
		if err != nil {
			return Quote{}, errx.InvalidInput(fmt.Sprintf("unknown product %q", id))
		}
		if !p.InStock {
			return Quote{}, errx.InvalidInput(fmt.Sprintf("%s is out of stock", p.Name))
		}
		index[id] = len(lines)
		lines = append(lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     p.Price,
			Quantity:  it.Quantity,
		})
	}

	priced := make([]pricing.Line, len(lines))
	for i := range lines {
		lines[i].LineTotal = pricing.Quote([]pricing.Line{{Price: lines[i].Price, Quantity: lines[i].Quantity}}).Subtotal
		priced[i] = pricing.Line{Price: lines[i].Price, Quantity: lines[i].Quantity}
	}

	return Quote{Items: lines, Breakdown: pricing.Quote(priced)}, nil
}

// Place re-prices the cart, validates delivery details and stores the order
// for userID.
func (s *Service) Place(ctx context.Context, userID string, req Request) (order.Order, error) {
	q, err := s.Quote(ctx, req.Items)
	if err != nil {
		return order.Order{}, err
	}
	if err := req.DeliveryAddress.Validate(); err != nil {
		return order.Order{}, err
	}
	method, err := NormalizePaymentMethod(req.PaymentMethod)
	if err != nil {
		return order.Order{}, err
	}

	if req.ClientPricing != nil && !q.Breakdown.Matches(*req.ClientPricing) {
		logx.Warn().
			Str("user_id", userID).
			Float64("client_total", req.ClientPricing.Total).
			Float64("total", q.Total).
			Msg("client pricing disagrees with server quote, using server quote")
	}
	if req.CouponCode != "" {
		logx.Debug().Str("user_id", userID).Str("coupon", req.CouponCode).Msg("coupon codes are not applied")
	}

	items := make([]order.Item, len(q.Items))
	for i, l := range q.Items {
		items[i] = order.Item{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Price:     l.Price,
		}
	}

	return s.orders.Create(ctx, order.NewOrder{
		UserID:        userID,
		Items:         items,
		Pricing:       q.Breakdown,
		Address:       req.DeliveryAddress,
		PaymentMethod: method,
	})
}
