package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxMessageSize bounds encrypted message bodies. Envelopes around chat
// prompts are small; anything larger is either abuse or corruption.
const MaxMessageSize int64 = 1 << 20 // 1 MiB

func MaxSizeMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "request body too large",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
