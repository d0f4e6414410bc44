package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/section-scheduler/internal/models"
	appErrors "github.com/noah-isme/section-scheduler/pkg/errors"
	"github.com/noah-isme/section-scheduler/pkg/response"
)

// RequireRoles lets a request through only when the token role is listed.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
