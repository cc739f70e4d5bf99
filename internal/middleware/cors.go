package middleware

import (
	"time"

	"github.com/Xeladesign/shok/internal/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// AllowedOrigins lists the browser origins for both REST and the realtime shells.
func AllowedOrigins() []string {
	origins := []string{"http://localhost:5173"}
	if config.AppConfig != nil && config.AppConfig.FrontendURL != "" && config.AppConfig.FrontendURL != origins[0] {
		origins = append(origins, config.AppConfig.FrontendURL)
	}
	return origins
}

func CORSMiddleware() gin.HandlerFunc {
	config := cors.Config{
		AllowOrigins:     AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	return cors.New(config)
}
