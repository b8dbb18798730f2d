package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/marketapi/internal/api/handlers"
	"github.com/jafarshop/marketapi/internal/api/middleware"
	"github.com/jafarshop/marketapi/internal/config"
	"github.com/jafarshop/marketapi/internal/repository"
	"github.com/jafarshop/marketapi/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(
	cfg *config.Config,
	repos *repository.Repositories,
	orders *service.OrderService,
	disputes *service.DisputeService,
	notifications *service.NotificationService,
	logger *zap.Logger,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	{
		// Authenticated routes (buyer surface)
		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret, repos, logger))
		{
			authed.POST("/orders", handlers.HandleCreateOrder(orders, logger))
			authed.GET("/orders", handlers.HandleListOrders(orders, logger))
			authed.GET("/orders/:id", handlers.HandleGetOrder(orders, logger))

			authed.POST("/disputes", handlers.HandleCreateDispute(disputes, logger))
			authed.GET("/orders/:id/dispute", handlers.HandleGetDispute(disputes, logger))
			authed.POST("/orders/:id/dispute/messages", handlers.HandleAddDisputeMessage(disputes, logger))

			authed.GET("/notifications", handlers.HandleListNotifications(notifications, logger))
			authed.GET("/notifications/unread-count", handlers.HandleUnreadCount(notifications, logger))
			authed.POST("/notifications/:id/read", handlers.HandleMarkNotificationRead(notifications, logger))
			authed.POST("/notifications/read-all", handlers.HandleMarkAllNotificationsRead(notifications, logger))
		}

		// Seller routes (approved sellers only)
		sellerRoutes := v1.Group("/seller")
		sellerRoutes.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret, repos, logger))
		sellerRoutes.Use(middleware.RequireApprovedSeller())
		{
			sellerRoutes.GET("/orders", handlers.HandleSellerListOrders(orders, logger))
			sellerRoutes.PATCH("/orders/:id", handlers.HandleSellerUpdateOrder(orders, logger))
			sellerRoutes.PATCH("/orders/:id/items", handlers.HandleSellerSetItemShipping(orders, logger))
		}

		// Admin routes
		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret, repos, logger))
		adminRoutes.Use(middleware.RequireAdmin())
		{
			adminRoutes.GET("/orders", handlers.HandleAdminListOrders(orders, logger))
			adminRoutes.GET("/orders/:id", handlers.HandleAdminGetOrder(orders, logger))
			adminRoutes.POST("/orders/:id/status", handlers.HandleAdminSetStatus(orders, logger))
			adminRoutes.POST("/orders/:id/verify-payment", handlers.HandleAdminVerifyPayment(orders, logger))

			adminRoutes.GET("/disputes", handlers.HandleAdminListDisputes(disputes, logger))
			adminRoutes.GET("/disputes/:id", handlers.HandleAdminGetDispute(disputes, logger))
			adminRoutes.PATCH("/disputes/:id", handlers.HandleAdminUpdateDispute(disputes, logger))
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
