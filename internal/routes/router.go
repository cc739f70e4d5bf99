package routes

import (
	"strings"

	"github.com/Xeladesign/shok/internal/handlers"
	"github.com/Xeladesign/shok/internal/middleware"
	"github.com/gin-gonic/gin"
)

// RouterOptions holds what NewRouter wires besides the handlers.
type RouterOptions struct {
	Health      gin.HandlerFunc
	Maintenance func() bool
	MaintETA    string
}

// NewRouter builds the engine with the shared middleware stack and the /api routes.
func NewRouter(h *handlers.Handlers, opts RouterOptions) *gin.Engine {
	r := gin.New()

	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.SecurityHeaders())

	// Realtime transports hold long connections, exempt them from per-request limits
	r.Use(func(c *gin.Context) {
		p := c.Request.URL.Path
		if p == "/ws" || strings.HasPrefix(p, "/socket.io/") {
			c.Next()
			return
		}
		middleware.GeneralRateLimit()(c)
	})

	if opts.Maintenance != nil {
		r.Use(middleware.MaintenanceMode(opts.Maintenance, opts.MaintETA))
	}

	auth := middleware.AuthMiddleware(h.Directory)
	api := r.Group("/api")
	{
		RegisterChatRoutes(api, h, auth)
		RegisterNotificationRoutes(api, h, auth)
		RegisterSocialRoutes(api, h, auth)
	}

	if opts.Health != nil {
		r.GET("/health", opts.Health)
	}
	return r
}
