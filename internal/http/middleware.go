package http

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
)

// CustomLoggerMiddleware logs one line per request with the request id attached.
func CustomLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
			slog.String("request_id", requestid.Get(c)),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("http request", attrs...)
		case status >= 400:
			logger.Warn("http request", attrs...)
		default:
			logger.Info("http request", attrs...)
		}
	}
}

// RequestMetaMiddleware stores the request id, client IP and user agent in the
// request context so audit entries can be correlated with the request that caused them.
// It must run after the requestid middleware.
func RequestMetaMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := auditDomain.RequestMeta{
			CorrelationID: requestid.Get(c),
			IPAddress:     c.ClientIP(),
			UserAgent:     c.Request.UserAgent(),
		}
		c.Request = c.Request.WithContext(auditDomain.WithRequestMeta(c.Request.Context(), meta))
		c.Next()
	}
}
