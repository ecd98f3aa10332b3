// Package gateway serves the REST API.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/example/shoppurs/pkg/address"
	"github.com/example/shoppurs/pkg/auth"
	"github.com/example/shoppurs/pkg/cart"
	"github.com/example/shoppurs/pkg/catalog"
	"github.com/example/shoppurs/pkg/config"
	"github.com/example/shoppurs/pkg/order"
	"github.com/example/shoppurs/pkg/repository"
)

// AuditTrail reads an order's audit history.
type AuditTrail interface {
	OrderTrail(ctx context.Context, orderID uint, limit int64) ([]repository.AuditLog, error)
}

// Services are the domain components behind the routes. Trail and Ready
// are optional.
type Services struct {
	Catalog   *catalog.Reader
	Cart      *cart.Store
	Addresses *address.Resolver
	Orders    *order.Service
	Tokens    *auth.TokenManager
	Trail     AuditTrail
	Ready     func(ctx context.Context) error
}

type Gateway struct {
	config   *config.Config
	services Services
	logger   *zap.Logger
	router   *gin.Engine
	server   *http.Server
}

func NewGateway(cfg *config.Config, logger *zap.Logger, svc Services) *Gateway {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", headerIdempotencyKey},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	g := &Gateway{
		config:   cfg,
		services: svc,
		logger:   logger.Named("gateway"),
		router:   router,
	}
	g.SetupRoutes()
	return g
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", g.health)

	v1 := g.router.Group("/api/v1")
	v1.Use(g.authMiddleware())
	{
		products := v1.Group("/products")
		{
			products.GET("/:id", g.getProduct)
			products.GET("/barcode/:code", g.getProductByBarcode)
		}

		carts := v1.Group("/cart")
		{
			carts.POST("/add", g.addToCart)
			carts.POST("/add-auto", g.addAuto)
			carts.POST("/add-barcode", g.addByBarcode)
			carts.POST("/edit-unit", g.editUnit)
			carts.GET("/fetch", g.fetchCart)
			carts.GET("/count", g.cartCount)
			carts.POST("/increase-quantity", g.increaseQuantity)
			carts.POST("/decrease-quantity", g.decreaseQuantity)
			carts.DELETE("/:id", g.removeLine)
			carts.POST("/place-order", g.placeOrder)
		}

		addresses := v1.Group("/addresses")
		{
			addresses.GET("", g.listAddresses)
			addresses.POST("", g.createAddress)
			addresses.PUT("/:id/default", g.setDefaultAddress)
			addresses.DELETE("/:id", g.deleteAddress)
		}

		orders := v1.Group("/orders")
		{
			orders.GET("/list", g.listOrders)
			orders.GET("/details/:id", g.orderDetails)
			orders.PUT("/cancel/:id", g.cancelOrder)

			staff := orders.Group("", requireStaff())
			staff.PUT("/:id/status", g.updateOrderStatus)
			staff.GET("/:id/audit", g.orderAudit)
			staff.POST("/counter", g.placeCounterOrder)
			staff.GET("/admin", g.adminOrders)
			staff.GET("/export", g.exportOrders)
		}
	}

	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// Handler exposes the router, mainly for tests.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) Start() error {
	addr := g.config.Server.Addr()
	g.server = &http.Server{
		Addr:              addr,
		Handler:           g.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.logger.Info("Gateway starting", zap.String("address", addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

func (g *Gateway) health(c *gin.Context) {
	if g.services.Ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := g.services.Ready(ctx); err != nil {
			g.logger.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, envelope{Success: false, Message: "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: "ok"})
}
