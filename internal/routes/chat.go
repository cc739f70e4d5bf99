package routes

import (
	"github.com/Xeladesign/shok/internal/handlers"
	"github.com/Xeladesign/shok/internal/middleware"
	"github.com/gin-gonic/gin"
)

func RegisterChatRoutes(r gin.IRouter, h *handlers.Handlers, auth gin.HandlerFunc) {
	chat := r.Group("/chat")
	chat.Use(auth)
	{
		chat.GET("/conversations", h.GetConversations)
		chat.GET("/messages", h.GetMessages) // ?userId=...
		chat.POST("/messages", middleware.ChatRateLimit(), h.SendMessage)
		chat.POST("/read/:partnerId", h.MarkRead)
	}
}
