package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSOptions configures cross-origin access for browser clients.
type CORSOptions struct {
	Enabled bool
	// Origins is a comma-separated allow list. A single "*" allows any origin
	// without credentials.
	Origins string
	MaxAge  time.Duration
}

// newCORSMiddleware returns nil when CORS is disabled or no usable origin is left
// after validation.
func newCORSMiddleware(opts CORSOptions, logger *slog.Logger) gin.HandlerFunc {
	if !opts.Enabled {
		return nil
	}

	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposeHeaders: []string{"X-Request-Id", "Retry-After"},
		MaxAge:        opts.MaxAge,
	}

	if strings.TrimSpace(opts.Origins) == "*" {
		logger.Warn("CORS allows any origin, credentials are disabled")
		cfg.AllowAllOrigins = true
		return cors.New(cfg)
	}

	origins := parseOrigins(opts.Origins, logger)
	if len(origins) == 0 {
		logger.Warn("CORS enabled but no valid origins configured, CORS will not be applied")
		return nil
	}

	logger.Info("CORS enabled", slog.Any("origins", origins))
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cors.New(cfg)
}

// parseOrigins keeps entries of the form scheme://host[:port]. Anything else,
// including paths and wildcards inside a list, is logged and skipped.
func parseOrigins(raw string, logger *slog.Logger) []string {
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		origin := strings.TrimRight(strings.TrimSpace(part), "/")
		if origin == "" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || u.Path != "" {
			logger.Warn("ignoring invalid CORS origin", slog.String("origin", origin))
			continue
		}
		origins = append(origins, u.Scheme+"://"+u.Host)
	}
	return origins
}
