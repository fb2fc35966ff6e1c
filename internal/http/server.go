// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditHTTP "github.com/allisson/gatekeeper/internal/audit/http"
	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	authHTTP "github.com/allisson/gatekeeper/internal/auth/http"
	authUseCase "github.com/allisson/gatekeeper/internal/auth/usecase"
	"github.com/allisson/gatekeeper/internal/config"
	"github.com/allisson/gatekeeper/internal/metrics"
	userHTTP "github.com/allisson/gatekeeper/internal/user/http"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Server represents the HTTP server.
type Server struct {
	db     *sql.DB
	server *http.Server
	logger *slog.Logger
	router *gin.Engine
	checks map[string]ReadinessCheck
}

// RouterDeps carries everything SetupRouter mounts on the engine.
type RouterDeps struct {
	AuthHandler          *authHTTP.AuthHandler
	UserHandler          *userHTTP.UserHandler
	AuditLogHandler      *auditHTTP.AuditLogHandler
	TokenUseCase         authUseCase.TokenUseCase
	PermissionMiddleware *authHTTP.PermissionMiddleware
	MetricsProvider      *metrics.Provider
}

// NewServer creates a new HTTP server. The database, when non-nil, is pinged by /ready.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		checks: make(map[string]ReadinessCheck),
		server: newHTTPServer(host, port, nil),
	}
}

func newHTTPServer(host string, port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// AddReadinessCheck registers an extra component reported by /ready.
func (s *Server) AddReadinessCheck(name string, check ReadinessCheck) {
	s.checks[name] = check
}

// SetupRouter builds the gin engine with the global middleware chain and every route.
// The ctx bounds the rate limiter cleanup goroutines.
func (s *Server) SetupRouter(ctx context.Context, cfg *config.Config, deps RouterDeps) {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(RequestMetaMiddleware())
	router.Use(CustomLoggerMiddleware(s.logger))

	corsOpts := CORSOptions{Enabled: cfg.CORSEnabled, Origins: cfg.CORSAllowOrigins, MaxAge: cfg.CORSMaxAge}
	if corsMiddleware := newCORSMiddleware(corsOpts, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if cfg.MetricsEnabled && deps.MetricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(deps.MetricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	var anonymousLimit []gin.HandlerFunc
	if cfg.RateLimitAuthEnabled {
		anonymousLimit = append(anonymousLimit, authHTTP.IPRateLimitMiddleware(
			ctx,
			cfg.RateLimitAuthRequestsPerSec,
			cfg.RateLimitAuthBurst,
			s.logger,
		))
	}

	authenticated := []gin.HandlerFunc{authHTTP.AuthenticationMiddleware(deps.TokenUseCase, s.logger)}
	if cfg.RateLimitEnabled {
		authenticated = append(authenticated, authHTTP.RateLimitMiddleware(
			ctx,
			cfg.RateLimitRequestsPerSec,
			cfg.RateLimitBurst,
			s.logger,
		))
	}

	s.mountAuthRoutes(v1, deps, anonymousLimit, authenticated)
	s.mountUserRoutes(v1, deps, authenticated)
	s.mountAuditRoutes(v1, deps, authenticated)

	s.router = router
}

func (s *Server) mountAuthRoutes(
	v1 *gin.RouterGroup,
	deps RouterDeps,
	anonymousLimit, authenticated []gin.HandlerFunc,
) {
	auth := v1.Group("/auth")

	public := auth.Group("", anonymousLimit...)
	public.POST("/register", deps.AuthHandler.RegisterHandler)
	public.POST("/login", deps.AuthHandler.LoginHandler)
	public.POST("/refresh", deps.AuthHandler.RefreshHandler)

	self := auth.Group("", authenticated...)
	self.POST("/logout", deps.AuthHandler.LogoutHandler)
	self.GET("/profile", deps.AuthHandler.GetProfileHandler)
	self.PATCH("/profile", deps.AuthHandler.UpdateProfileHandler)
	self.POST("/change-password", deps.AuthHandler.ChangePasswordHandler)
	self.GET("/permissions", deps.AuthHandler.PermissionsHandler)
}

func (s *Server) mountUserRoutes(v1 *gin.RouterGroup, deps RouterDeps, authenticated []gin.HandlerFunc) {
	guard := deps.PermissionMiddleware
	users := v1.Group("/users", authenticated...)

	users.GET("", guard.Require(authDomain.PermUsersView), deps.UserHandler.ListHandler)
	users.POST("", guard.Require(authDomain.PermUsersCreate), deps.UserHandler.CreateHandler)
	users.GET("/:id", guard.Require(authDomain.PermUsersView), deps.UserHandler.GetHandler)
	users.PATCH("/:id", guard.Require(authDomain.PermUsersEdit), deps.UserHandler.UpdateHandler)
	users.POST("/:id/deactivate", guard.Require(authDomain.PermUsersDelete), deps.UserHandler.DeactivateHandler)
	users.POST("/:id/reset-password", guard.Require(authDomain.PermUsersEdit), deps.UserHandler.ResetPasswordHandler)
}

func (s *Server) mountAuditRoutes(v1 *gin.RouterGroup, deps RouterDeps, authenticated []gin.HandlerFunc) {
	guard := deps.PermissionMiddleware
	logs := v1.Group("/audit/logs", authenticated...)

	logs.GET("", guard.Require(authDomain.PermAuditView), deps.AuditLogHandler.ListHandler)
	logs.GET("/:id", guard.Require(authDomain.PermAuditView), deps.AuditLogHandler.GetHandler)
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server. SetupRouter must be called first.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured")
	}
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler pings the database and every registered check. Any failure
// reports 503 with the per-component status.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string, len(s.checks)+1)
	ready := true

	if s.db == nil || s.db.PingContext(ctx) != nil {
		components["database"] = "error"
		ready = false
	} else {
		components["database"] = "ok"
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			s.logger.Warn("readiness check failed", slog.String("component", name), slog.Any("error", err))
			components[name] = "error"
			ready = false
			continue
		}
		components[name] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
