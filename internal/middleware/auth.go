package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/token"
)

// Auth authenticates requests from the session cookie, falling back to
// a bearer Authorization header. On success the user id is stored on the
// gin context under "userID".
func Auth(tokens *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := ""

		if cookie, err := c.Cookie("token"); err == nil {
			credential = strings.TrimPrefix(cookie, "Bearer ")
		}
		if credential == "" {
			header := c.GetHeader("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				credential = strings.TrimPrefix(header, "Bearer ")
			}
		}
		if credential == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}

		userID, err := tokens.Verify(credential)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
