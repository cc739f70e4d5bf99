package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaintenanceMode rejects API traffic while enabled reports true. Health
// checks stay reachable so the load balancer can tell the process is alive.
func MaintenanceMode(enabled func() bool, eta string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled() || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Maintenance in progress",
			"message": "Messaging is temporarily unavailable. Please try again later.",
			"eta":     eta,
		})
		c.Abort()
	}
}
