package ratelimit

import (
	"context"
	"log/slog"
	"strconv"

	apperrors "github.com/behaviorlab/inconsistency-meter/internal/errors"
	"github.com/gin-gonic/gin"
)

// IPRateLimitMiddleware applies the general per-IP budget
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return rl.middleware("X-RateLimit", rl.AllowIP)
}

// AnalysisRateLimitMiddleware applies the stricter budget to analysis routes
func (rl *RateLimiter) AnalysisRateLimitMiddleware() gin.HandlerFunc {
	return rl.middleware("X-RateLimit-Analysis", rl.AllowAnalysis)
}

func (rl *RateLimiter) middleware(headerPrefix string, check func(context.Context, string) (*Result, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		result, err := check(c.Request.Context(), ip)
		if err != nil {
			// a broken limiter must not take the API down
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header(headerPrefix+"-Limit", strconv.Itoa(result.Limit))
		c.Header(headerPrefix+"-Remaining", strconv.Itoa(result.Remaining))
		c.Header(headerPrefix+"-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitIPBlock()
			}

			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			appErr := apperrors.NewRateLimitError(strconv.Itoa(retryAfter) + "s")
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}

		c.Next()
	}
}
