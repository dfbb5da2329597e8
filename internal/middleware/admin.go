package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/classweek/classweek-api/internal/models"
	appErrors "github.com/classweek/classweek-api/pkg/errors"
	"github.com/classweek/classweek-api/pkg/response"
)

type adminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// AdminOnly refuses writes from anyone not on the admin allow-list. The
// check runs per request, and an unresolved lookup refuses the write rather
// than allowing it.
func AdminOnly(admins adminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok || claims.UserID == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		isAdmin, err := admins.IsAdmin(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if !isAdmin {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "admin access required"))
			c.Abort()
			return
		}

		c.Next()
	}
}
