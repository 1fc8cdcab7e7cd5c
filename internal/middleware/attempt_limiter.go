package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

const (
	maxFailedAttempts = 3
	blockDuration     = 3 * time.Minute
)

// HandshakeAttemptLimiter blocks an IP after repeated failed handshakes.
// Handlers mark a failure by setting "failed_handshake" in the context. The
// cache is owned by the returned middleware, not package state, so separate
// engines do not share counters.
func HandshakeAttemptLimiter() gin.HandlerFunc {
	attempts := cache.New(blockDuration, time.Minute)
	var mu sync.Mutex

	return func(c *gin.Context) {
		ip := c.ClientIP()

		if blockedUntil, found := attempts.Get("block_" + ip); found {
			if t, ok := blockedUntil.(time.Time); ok && time.Now().Before(t) {
				retryAfter := int(time.Until(t).Seconds())
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
					"error":       "too many failed attempts, try again later",
					"retry_after": retryAfter,
				})
				return
			}
		}

		c.Next()

		if failed, exists := c.Get("failed_handshake"); exists && failed.(bool) {
			mu.Lock()
			defer mu.Unlock()

			key := "fail_" + ip
			count := 0
			if countRaw, _ := attempts.Get(key); countRaw != nil {
				count = countRaw.(int)
			}
			count++
			if count >= maxFailedAttempts {
				attempts.Set("block_"+ip, time.Now().Add(blockDuration), blockDuration)
				attempts.Delete(key)
			} else {
				attempts.Set(key, count, blockDuration)
			}
		}
	}
}
