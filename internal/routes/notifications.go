package routes

import (
	"github.com/Xeladesign/shok/internal/handlers"
	"github.com/gin-gonic/gin"
)

func RegisterNotificationRoutes(r gin.IRouter, h *handlers.Handlers, auth gin.HandlerFunc) {
	notifications := r.Group("/notifications")
	notifications.Use(auth)
	{
		notifications.GET("", h.GetNotifications)
		notifications.GET("/unread-count", h.GetUnreadCount)
		notifications.GET("/aggregate", h.GetAggregateUnreadCount)
		notifications.PUT("/read-all", h.MarkAllNotificationsRead)
	}
}
