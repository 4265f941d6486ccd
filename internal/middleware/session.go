package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	SessionHeader    = "X-Session-ID"
	sessionKey       = "sessionID"
	maxSessionLength = 128
)

// Session requires the X-Session-ID header that scopes cart state.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(SessionHeader))
		if id == "" || len(id) > maxSessionLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": "X-Session-ID header is required"})
			c.Abort()
			return
		}
		c.Set(sessionKey, id)
		c.Next()
	}
}

func SessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
