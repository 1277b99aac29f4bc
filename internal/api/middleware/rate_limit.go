package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/stitts-dev/prop-projector/pkg/utils"
)

// RateLimit rejects requests beyond the token bucket with 429
func RateLimit(limit rate.Limit, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(limit, burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			utils.SendTooManyRequests(c, "Rate limit exceeded, retry shortly")
			c.Abort()
			return
		}
		c.Next()
	}
}
