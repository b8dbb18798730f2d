package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketapi/internal/api/middleware"
	"github.com/jafarshop/marketapi/internal/domain"
	"github.com/jafarshop/marketapi/internal/service"
)

// HandleAdminListOrders handles GET /v1/admin/orders
func HandleAdminListOrders(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := domain.OrderStatus(c.Query("status"))
		limit, offset := parsePaging(c)

		list, err := orders.AdminListOrders(c.Request.Context(), status, limit, offset)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"orders": toOrderResponses(list)})
	}
}

// HandleAdminGetOrder handles GET /v1/admin/orders/:id
func HandleAdminGetOrder(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		order, err := orders.GetOrder(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

// HandleAdminSetStatus handles POST /v1/admin/orders/:id/status
func HandleAdminSetStatus(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		var req service.AdminSetStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		order, err := orders.AdminSetStatus(c.Request.Context(), orderID, domain.OrderStatus(req.Status))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

// HandleAdminVerifyPayment handles POST /v1/admin/orders/:id/verify-payment
func HandleAdminVerifyPayment(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		order, err := orders.AdminVerifyPayment(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

// HandleAdminListDisputes handles GET /v1/admin/disputes. Defaults to open
// disputes when no status filter is given.
func HandleAdminListDisputes(disputes *service.DisputeService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := domain.DisputeStatus(c.DefaultQuery("status", string(domain.DisputeStatusOpen)))
		limit, offset := parsePaging(c)

		list, err := disputes.AdminListDisputes(c.Request.Context(), status, limit, offset)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		out := make([]DisputeResponse, len(list))
		for i, d := range list {
			out[i] = toDisputeResponse(d, true)
		}
		c.JSON(http.StatusOK, gin.H{"disputes": out})
	}
}

// HandleAdminGetDispute handles GET /v1/admin/disputes/:id
func HandleAdminGetDispute(disputes *service.DisputeService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		disputeID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dispute ID"})
			return
		}

		dispute, err := disputes.AdminGetDispute(c.Request.Context(), disputeID)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, toDisputeResponse(dispute, true))
	}
}

// HandleAdminUpdateDispute handles PATCH /v1/admin/disputes/:id
func HandleAdminUpdateDispute(disputes *service.DisputeService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		disputeID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dispute ID"})
			return
		}

		var req service.AdminDisputeUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		dispute, err := disputes.AdminUpdateDispute(c.Request.Context(), disputeID, admin.ID, req)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, toDisputeResponse(dispute, true))
	}
}
