package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	auditUsecase "github.com/allisson/gatekeeper/internal/audit/usecase"
	authUseCase "github.com/allisson/gatekeeper/internal/auth/usecase"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/httputil"
)

// AuthenticationMiddleware validates the Bearer access token in the Authorization header.
//
// The middleware:
// 1. Extracts the Bearer token from the Authorization header (case-insensitive)
// 2. Validates it with tokenUseCase.Authenticate, which reloads the user
// 3. Stores the user in the request context for GetUser
//
// Error handling:
//   - Missing or malformed Authorization header → 401 unauthorized
//   - Expired token → 401 token_expired
//   - Bad signature, stale token version or wrong token type → 401 token_invalid
//   - Missing or inactive user → 401 authentication_failed
//
// Usage:
//
//	router.Use(AuthenticationMiddleware(tokenUseCase, logger))
//	router.GET("/profile", func(c *gin.Context) {
//	    user, _ := GetUser(c.Request.Context())
//	    ...
//	})
func AuthenticationMiddleware(tokenUseCase authUseCase.TokenUseCase, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			logger.Debug("authentication failed: missing or malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		user, err := tokenUseCase.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)

		logger.Debug("authentication successful", slog.String("user_id", user.ID.String()))

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const bearerPrefix = "bearer "
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

// PermissionMiddleware builds authorization middleware backed by a PermissionUseCase.
//
// Every check reads the current role mapping. A denied request is recorded in the
// audit trail as authorization.denied and answered with 403 before the handler runs.
// The middlewares require AuthenticationMiddleware to run first.
type PermissionMiddleware struct {
	permissions authUseCase.PermissionUseCase
	recorder    auditUsecase.Recorder
	logger      *slog.Logger
}

// NewPermissionMiddleware creates a PermissionMiddleware.
func NewPermissionMiddleware(
	permissions authUseCase.PermissionUseCase,
	recorder auditUsecase.Recorder,
	logger *slog.Logger,
) *PermissionMiddleware {
	return &PermissionMiddleware{
		permissions: permissions,
		recorder:    recorder,
		logger:      logger,
	}
}

// Require allows the request when the user holds code.
func (m *PermissionMiddleware) Require(code string) gin.HandlerFunc {
	return m.check("all", []string{code}, func(c *gin.Context) bool {
		user, _ := GetUser(c.Request.Context())
		return m.permissions.HasPermission(c.Request.Context(), user, code)
	})
}

// RequireAny allows the request when the user holds at least one of codes.
func (m *PermissionMiddleware) RequireAny(codes ...string) gin.HandlerFunc {
	return m.check("any", codes, func(c *gin.Context) bool {
		user, _ := GetUser(c.Request.Context())
		return m.permissions.HasAnyPermission(c.Request.Context(), user, codes...)
	})
}

// RequireAll allows the request when the user holds every one of codes.
func (m *PermissionMiddleware) RequireAll(codes ...string) gin.HandlerFunc {
	return m.check("all", codes, func(c *gin.Context) bool {
		user, _ := GetUser(c.Request.Context())
		return m.permissions.HasAllPermissions(c.Request.Context(), user, codes...)
	})
}

func (m *PermissionMiddleware) check(mode string, codes []string, allowed func(c *gin.Context) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		user, ok := GetUser(ctx)
		if !ok {
			m.logger.Debug("authorization failed: no authenticated user in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, m.logger)
			c.Abort()
			return
		}

		if !allowed(c) {
			m.logger.Debug("authorization failed: insufficient permissions",
				slog.String("user_id", user.ID.String()),
				slog.String("path", c.FullPath()),
				slog.Any("permissions", codes))

			actorID := user.ID
			m.recorder.RecordFailure(ctx, auditDomain.ActionAuthorizationDenied, &actorID,
				auditDomain.ResourceEndpoint, c.Request.Method+" "+c.FullPath(),
				map[string]any{
					"required": codes,
					"mode":     mode,
					"role":     user.RoleName,
				})

			httputil.HandleErrorGin(c, apperrors.ErrPermissionDenied, m.logger)
			c.Abort()
			return
		}

		if len(codes) == 1 {
			c.Request = c.Request.WithContext(WithPermission(ctx, codes[0]))
		}

		c.Next()
	}
}
