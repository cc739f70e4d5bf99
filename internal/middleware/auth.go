package middleware

import (
	"net/http"
	"strings"

	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/internal/services"
	"github.com/Xeladesign/shok/pkg/logger"
	"github.com/Xeladesign/shok/pkg/utils"
	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey   = "userId"
	IdentityKey = "identity"
)

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware validates the bearer token and stores the caller's id and
// display identity in the context. A directory failure does not reject the
// request, the caller gets a placeholder identity instead.
func AuthMiddleware(dir services.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		ident, err := dir.Identity(c.Request.Context(), claims.UserID)
		if err != nil {
			logger.Warn().Err(err).Str("user_id", claims.UserID).Msg("Identity lookup failed")
			ident = models.UnknownIdentity(claims.UserID)
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(IdentityKey, ident)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the caller's id when a valid token is present
// and lets anonymous requests through untouched.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			c.Next()
			return
		}
		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

// CurrentIdentity returns the identity stored by AuthMiddleware.
func CurrentIdentity(c *gin.Context) models.Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if ident, ok := v.(models.Identity); ok {
			return ident
		}
	}
	return models.UnknownIdentity(c.GetString(UserIDKey))
}
