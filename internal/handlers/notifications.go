package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetNotifications returns the latest notifications of the caller (default 10, max 50)
func (h *Handlers) GetNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	notifications := h.Notifier.List(c.Request.Context(), userID(c), limit)
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// GetUnreadCount returns the number of unread notifications for the bell badge
func (h *Handlers) GetUnreadCount(c *gin.Context) {
	count, err := h.Notifier.UnreadCount(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// GetAggregateUnreadCount adds unread messages to unread notifications
func (h *Handlers) GetAggregateUnreadCount(c *gin.Context) {
	ctx := c.Request.Context()
	me := userID(c)

	notificationCount, err := h.Notifier.UnreadCount(ctx, me)
	if err != nil {
		respondError(c, err)
		return
	}
	messageCount, err := h.Messenger.UnreadCount(ctx, me)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notificationCount,
		"messages":      messageCount,
		"total":         notificationCount + messageCount,
	})
}

// MarkAllNotificationsRead clears the bell badge
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.Notifier.MarkAllRead(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All marked as read", "markedRead": n})
}
