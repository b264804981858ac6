package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"urlshort/internal/jwt"
)

// ContextKeyUserID is the Gin context key the optional-auth middleware
// sets to an explicit, typed context value.
const ContextKeyUserID = "user_id"

// OptionalAuth extracts the caller's user id from a bearer token when
// present, without requiring one: anonymous requests are valid for the
// shorten/redirect surface. Endpoints that require ownership (DELETE)
// check ContextKeyUserID themselves and respond 401 if absent.
func OptionalAuth(verifier *jwt.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || verifier == nil {
			c.Next()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.Next()
			return
		}
		claims, err := verifier.Verify(parts[1])
		if err != nil {
			c.Next()
			return
		}
		c.Set(ContextKeyUserID, claims.UserID)
		c.Next()
	}
}
