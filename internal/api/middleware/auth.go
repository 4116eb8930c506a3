package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerAuth returns a middleware that requires a bearer token from the
// allowed set on every request. With an empty token set the API is open,
// which is the local demo default.
func BearerAuth(tokens []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		if t != "" {
			allowed[t] = true
		}
	}

	return func(c *gin.Context) {
		if len(allowed) == 0 {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || !allowed[token] {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or missing bearer token",
			})
			return
		}

		c.Next()
	}
}
