package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greenleaf-shop/server/internal/catalog"
	"github.com/greenleaf-shop/server/internal/checkout"
	errx "github.com/greenleaf-shop/server/internal/core/error"
	"github.com/greenleaf-shop/server/internal/order"
	"github.com/greenleaf-shop/server/internal/pricing"
)

// ================ Catalog ================

func (s *Server) handleListProducts(c *gin.Context) {
	products := s.deps.Catalog.List(catalog.Filter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
}

func (s *Server) handleGetProduct(c *gin.Context) {
	p, err := s.deps.Catalog.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": s.deps.Catalog.Categories()})
}

// ================ Auth ================

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errx.InvalidInput("invalid request body"))
		return
	}
	user, token, err := s.deps.Auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token.Value, "expiresAt": token.ExpiresAt})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errx.InvalidInput("invalid request body"))
		return
	}
	user, token, err := s.deps.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token.Value, "expiresAt": token.ExpiresAt})
}

func (s *Server) handleProfile(c *gin.Context) {
	token, _ := bearerToken(c.GetHeader("Authorization"))
	user, err := s.deps.Auth.ResolveToken(c.Request.Context(), token)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ================ Cart & Orders ================

type quoteRequest struct {
	Items []checkout.CartItem `json:"items"`
}

func (s *Server) handleQuote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errx.InvalidInput("invalid request body"))
		return
	}
	q, err := s.deps.Checkout.Quote(c.Request.Context(), req.Items)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

type createOrderRequest struct {
	Items           []checkout.CartItem `json:"items"`
	Subtotal        *float64            `json:"subtotal"`
	Discount        *float64            `json:"discount"`
	Shipping        *float64            `json:"shipping"`
	Total           *float64            `json:"total"`
	DeliveryAddress *order.Address      `json:"deliveryAddress"`
	PaymentMethod   string              `json:"paymentMethod"`
	CouponCode      string              `json:"couponCode"`
}

// clientPricing returns the totals the client computed, if it sent them.
func (r createOrderRequest) clientPricing() *pricing.Breakdown {
	if r.Total == nil {
		return nil
	}
	val := func(f *float64) float64 {
		if f == nil {
			return 0
		}
		return *f
	}
	return &pricing.Breakdown{
		Subtotal: val(r.Subtotal),
		Discount: val(r.Discount),
		Shipping: val(r.Shipping),
		Total:    *r.Total,
	}
}

func (s *Server) handleCreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errx.InvalidInput("invalid request body"))
		return
	}
	if len(req.Items) == 0 {
		abortWithError(c, errx.InvalidInput("items are required"))
		return
	}
	if req.DeliveryAddress == nil || req.PaymentMethod == "" {
		abortWithError(c, errx.InvalidInput("delivery address and payment method are required"))
		return
	}

	o, err := s.deps.Checkout.Place(c.Request.Context(), currentUser(c).ID, checkout.Request{
		Items:           req.Items,
		DeliveryAddress: *req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		CouponCode:      req.CouponCode,
		ClientPricing:   req.clientPricing(),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (s *Server) handleListOrders(c *gin.Context) {
	orders, err := s.deps.Orders.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}

func (s *Server) handleGetOrder(c *gin.Context) {
	o, err := s.deps.Orders.Get(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// ================ Advisor ================

type chatRequest struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
}

func (s *Server) handleAdvisorChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errx.InvalidInput("invalid request body"))
		return
	}
	reply, err := s.deps.Advisor.Chat(c.Request.Context(), req.ConversationID, req.Message)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (s *Server) handleAdvisorReset(c *gin.Context) {
	if err := s.deps.Advisor.Reset(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
