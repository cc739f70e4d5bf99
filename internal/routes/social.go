package routes

import (
	"github.com/Xeladesign/shok/internal/handlers"
	"github.com/Xeladesign/shok/internal/middleware"
	"github.com/gin-gonic/gin"
)

func RegisterSocialRoutes(r gin.IRouter, h *handlers.Handlers, auth gin.HandlerFunc) {
	users := r.Group("/users")
	users.Use(auth)
	{
		users.POST("/:id/follow", middleware.SocialRateLimit(), h.FollowUser)
		users.DELETE("/:id/follow", h.UnfollowUser)
		users.GET("/:id/follow", h.GetFollowStatus)
	}

	products := r.Group("/products")
	products.Use(auth)
	{
		products.POST("/:id/comments", middleware.SocialRateLimit(), h.AddComment)
		products.GET("/:id/comments", h.GetProductComments)
	}

	r.GET("/me", auth, h.GetMe)
}
