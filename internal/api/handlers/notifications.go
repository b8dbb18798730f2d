package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketapi/internal/api/middleware"
	"github.com/jafarshop/marketapi/internal/service"
)

// HandleListNotifications handles GET /v1/notifications
func HandleListNotifications(notifications *service.NotificationService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		limit, offset := parsePaging(c)
		list, err := notifications.List(c.Request.Context(), user.ID, limit, offset)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		out := make([]NotificationResponse, len(list))
		for i, n := range list {
			out[i] = toNotificationResponse(n)
		}
		c.JSON(http.StatusOK, gin.H{"notifications": out})
	}
}

// HandleUnreadCount handles GET /v1/notifications/unread-count
func HandleUnreadCount(notifications *service.NotificationService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		count, err := notifications.UnreadCount(c.Request.Context(), user.ID)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"unread": count})
	}
}

// HandleMarkNotificationRead handles POST /v1/notifications/:id/read
func HandleMarkNotificationRead(notifications *service.NotificationService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification ID"})
			return
		}

		if err := notifications.MarkRead(c.Request.Context(), user.ID, id); err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// HandleMarkAllNotificationsRead handles POST /v1/notifications/read-all
func HandleMarkAllNotificationsRead(notifications *service.NotificationService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if err := notifications.MarkAllRead(c.Request.Context(), user.ID); err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
