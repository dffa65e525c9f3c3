package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cleantrack-dev/cleantrack/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RateLimit caps requests per client IP within scope. A nil limiter or a
// non-positive limit disables it. When the limiter itself fails the request
// is let through.
func RateLimit(rl ratelimit.Limiter, scope string, limit int, window time.Duration, log *logrus.Logger) gin.HandlerFunc {
	if rl == nil || limit <= 0 {
		return func(ctx *gin.Context) {
			ctx.Next()
		}
	}

	return func(ctx *gin.Context) {
		key := fmt.Sprintf("%s:%s", scope, ctx.ClientIP())

		allowed, count, err := rl.Allow(ctx.Request.Context(), key, limit, window)

		if err != nil {
			log.WithField("operation", "middleware.RateLimit").WithError(err).Warn("rate limit check failed")
			ctx.Next()
			return
		}

		remaining := limit - count

		if remaining < 0 {
			remaining = 0
		}

		ctx.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		ctx.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !allowed {
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": window.Seconds(),
			})
			return
		}

		ctx.Next()
	}
}
