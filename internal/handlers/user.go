package handlers

import (
	"net/http"

	"github.com/Xeladesign/shok/internal/middleware"
	"github.com/gin-gonic/gin"
)

// GetMe returns the profile of the signed in user
func (h *Handlers) GetMe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.CurrentIdentity(c)})
}
