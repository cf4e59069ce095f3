package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/seekerapp/seeker-auth/internal/domain"
	"github.com/seekerapp/seeker-auth/internal/service"
	"go.uber.org/zap"
)

// RateLimitMiddleware creates a rate limiting middleware. When Redis is
// unavailable requests are let through.
func RateLimitMiddleware(rateLimiter *service.RateLimiter, limit int, window time.Duration, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := rateLimiter.Allow(c.Request.Context(), keyFunc(c), limit, window)
		if err != nil {
			zap.L().Warn("Rate limiter unavailable",
				zap.String("request_id", RequestID(c)),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			retryAfter := int(result.RetryAfter / time.Second)
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			respondError(c, (&domain.Error{
				Code:    domain.CodeRateLimited,
				Message: "Too many requests, try again later",
			}).WithDetails(map[string]any{"retry_after_seconds": retryAfter}))
			return
		}

		c.Next()
	}
}

// RouteAndIPKey limits each route separately per client IP.
func RouteAndIPKey(c *gin.Context) string {
	return c.FullPath() + ":" + c.ClientIP()
}
