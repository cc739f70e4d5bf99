package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/internal/services"
	apperrors "github.com/Xeladesign/shok/pkg/errors"
	"github.com/Xeladesign/shok/pkg/logger"
	"github.com/Xeladesign/shok/pkg/utils"
)

// tokenFrom reads the JWT from the query string, then the Authorization header.
func tokenFrom(r *http.Request) string {
	q := r.URL.Query()
	if token := q.Get("token"); token != "" {
		return token
	}
	if token := q.Get("auth_token"); token != "" {
		return token
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// authenticate turns a token into the caller's display identity.
func authenticate(ctx context.Context, dir services.Directory, token string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, apperrors.Unauthorized("Authentication required")
	}
	claims, err := utils.ValidateToken(token)
	if err != nil {
		return models.Identity{}, apperrors.Unauthorized("Invalid token")
	}
	ident, err := dir.Identity(ctx, claims.UserID)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", claims.UserID).Msg("Identity lookup failed, using placeholder")
		return models.UnknownIdentity(claims.UserID), nil
	}
	return ident, nil
}
