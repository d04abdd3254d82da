package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// UserIDHeader identifies the caller.  Set by the API gateway after
	// authentication; this service trusts it.
	UserIDHeader = "X-User-ID"

	userIDKey = "user_id"
)

// RequireUser rejects requests that carry no user identity.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(UserIDHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "COMMON_002",
				"message": "missing " + UserIDHeader + " header",
			})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// GetUserID returns the authenticated user ID for the current request.
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
