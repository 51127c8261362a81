package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"payflow/internal/auth"
)

const userIDKey = "payflow.userID"

// AuthRequired verifies the bearer token on protected routes and exposes the
// resolved user id to downstream handlers. The handler never runs on a
// missing or unverifiable token.
func AuthRequired(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const prefix = "Bearer "
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		userID, err := tokens.Verify(strings.TrimSpace(header[len(prefix):]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// userIDFrom returns the identity resolved by AuthRequired, or "" when the
// route was not protected.
func userIDFrom(c *gin.Context) string {
	v, _ := c.Get(userIDKey)
	id, _ := v.(string)
	return id
}
