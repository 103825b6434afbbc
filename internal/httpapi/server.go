// Package httpapi exposes the storefront over JSON HTTP using gin.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greenleaf-shop/server/internal/advisor"
	"github.com/greenleaf-shop/server/internal/auth"
	"github.com/greenleaf-shop/server/internal/catalog"
	"github.com/greenleaf-shop/server/internal/checkout"
	"github.com/greenleaf-shop/server/internal/order"
)

// Deps are the services behind the routes. Advisor may be nil, in which case
// the advisor routes are not registered.
type Deps struct {
	Catalog     *catalog.Catalog
	Auth        *auth.Service
	Checkout    *checkout.Service
	Orders      *order.Store
	Advisor     *advisor.Advisor
	PingMessage string
	// AllowedOrigins lists CORS origins; empty allows any origin.
	AllowedOrigins []string
}

type Server struct {
	deps Deps
}

// NewRouter builds the gin engine with every route registered. mode is one of
// the gin modes (debug, release, test).
func NewRouter(deps Deps, mode string) *gin.Engine {
	gin.SetMode(mode)
	s := &Server{deps: deps}

	router := gin.New()
	router.Use(requestLogger(), recovery(), cors(deps.AllowedOrigins))
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	api.GET("/ping", s.handlePing)

	api.GET("/products", s.handleListProducts)
	api.GET("/products/:id", s.handleGetProduct)
	api.GET("/categories", s.handleCategories)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", s.handleRegister)
	authGroup.POST("/login", s.handleLogin)
	authGroup.GET("/profile", s.handleProfile)

	api.POST("/cart/quote", s.handleQuote)

	orders := api.Group("/orders", s.requireUser())
	orders.POST("", s.handleCreateOrder)
	orders.GET("", s.handleListOrders)
	orders.GET("/:id", s.handleGetOrder)

	if deps.Advisor != nil {
		api.POST("/advisor/chat", s.handleAdvisorChat)
		api.DELETE("/advisor/conversations/:id", s.handleAdvisorReset)
	}

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": s.deps.PingMessage})
}
