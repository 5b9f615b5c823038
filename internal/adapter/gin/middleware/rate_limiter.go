package middleware

import (
	"net/http"

	grpcmiddleware "user-api-service/internal/adapter/grpc/middleware"

	"github.com/gin-gonic/gin"
)

// RateLimiter returns a Gin middleware backed by the shared Redis token bucket.
// Buckets are kept per method, route and client IP.
func RateLimiter(limiter *grpcmiddleware.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Enabled() {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		scope := c.Request.Method + ":" + route

		if !limiter.Allow(c.Request.Context(), scope, c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": limiter.ExceededMessage(),
			})
			return
		}

		c.Next()
	}
}
