package handlers

import (
	"github.com/Xeladesign/shok/internal/middleware"
	"github.com/Xeladesign/shok/internal/services"
	apperrors "github.com/Xeladesign/shok/pkg/errors"
	"github.com/gin-gonic/gin"
)

// Handlers serves the REST surface over the messaging services.
type Handlers struct {
	Inbox     *services.Inbox
	Messenger *services.Messenger
	Notifier  *services.Notifier
	Social    *services.Social
	Directory services.Directory
}

func userID(c *gin.Context) string {
	return c.MustGet(middleware.UserIDKey).(string)
}

// respondError writes err as JSON and records it on the context for the
// error middleware to log.
func respondError(c *gin.Context, err error, extra ...gin.H) {
	_ = c.Error(err)
	appErr := apperrors.As(err)
	body := gin.H{"error": appErr.Message}
	for _, h := range extra {
		for k, v := range h {
			body[k] = v
		}
	}
	c.JSON(appErr.Code, body)
}
