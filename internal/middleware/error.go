package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "github.com/Xeladesign/shok/pkg/errors"
	"github.com/Xeladesign/shok/pkg/logger"
	"github.com/gin-gonic/gin"
)

// ErrorHandlerMiddleware handles errors and panics
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("Panic recovered")

				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   "Internal Server Error",
					"message": "An unexpected error occurred",
				})
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := apperrors.As(c.Errors.Last().Err)
		if appErr.Kind == apperrors.KindInternal {
			logger.Error().Err(appErr).Str("path", c.Request.URL.Path).Msg("Unhandled request error")
		}
		c.JSON(appErr.Code, gin.H{
			"error": appErr.Message,
			"kind":  appErr.Kind,
		})
	}
}
