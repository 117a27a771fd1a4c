package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireRole lets through callers whose role is one of roles, compared
// case-insensitively. It must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)
		if !ok {
			abortUnauthorized(c, "Missing identity context")
			return
		}

		for _, r := range roles {
			if strings.EqualFold(role, r) {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": gin.H{
				"code":    "forbidden",
				"message": "Role " + strings.Join(roles, " or ") + " required",
			},
		})
	}
}
