package http

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
)

// IPRateLimitMiddleware enforces per-IP rate limiting on the unauthenticated
// credential endpoints (register, login, refresh).
//
// Uses c.ClientIP(), which honors X-Forwarded-For and X-Real-IP according to the
// engine's trusted proxy settings.
func IPRateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := newLimiterStore[string](ctx, rps, burst)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		limiter := store.getLimiter(clientIP)
		if !limiter.Allow() {
			retryAfter := rejectRateLimited(c, limiter,
				"Too many authentication requests from this IP. Please retry after the specified delay.")
			logger.Debug("auth rate limit exceeded",
				slog.String("client_ip", clientIP),
				slog.Int("retry_after", retryAfter))
			return
		}

		c.Next()
	}
}
