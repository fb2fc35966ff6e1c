package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/gatekeeper/internal/auth/http/dto"
	authUseCase "github.com/allisson/gatekeeper/internal/auth/usecase"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/httputil"
	userDomain "github.com/allisson/gatekeeper/internal/user/domain"
	userDTO "github.com/allisson/gatekeeper/internal/user/http/dto"
	userUseCase "github.com/allisson/gatekeeper/internal/user/usecase"
)

// AuthHandler handles the credential and self-service endpoints under /v1/auth.
type AuthHandler struct {
	tokenUseCase      authUseCase.TokenUseCase
	permissionUseCase authUseCase.PermissionUseCase
	userUseCase       userUseCase.UseCase
	logger            *slog.Logger
}

// NewAuthHandler creates a new auth handler with required dependencies.
func NewAuthHandler(
	tokenUseCase authUseCase.TokenUseCase,
	permissionUseCase authUseCase.PermissionUseCase,
	userUseCase userUseCase.UseCase,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		tokenUseCase:      tokenUseCase,
		permissionUseCase: permissionUseCase,
		userUseCase:       userUseCase,
		logger:            logger,
	}
}

// RegisterHandler creates an account and signs the new user in.
// POST /v1/auth/register - No authentication required. Returns 201 Created with user and tokens.
func (h *AuthHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	user, err := h.userUseCase.Register(c.Request.Context(), req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	pair, err := h.tokenUseCase.IssuePair(c.Request.Context(), user)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapAuthResponse(user, pair))
}

// LoginHandler exchanges credentials for a token pair.
// POST /v1/auth/login - No authentication required. Any credential failure
// returns the same 401 authentication_failed response.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	user, pair, err := h.tokenUseCase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAuthResponse(user, pair))
}

// RefreshHandler issues a new access token from a refresh token.
// POST /v1/auth/refresh - No authentication required.
func (h *AuthHandler) RefreshHandler(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	access, err := h.tokenUseCase.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRefreshResponse(access))
}

// LogoutHandler revokes the caller's refresh token.
// POST /v1/auth/logout - Requires authentication. Returns 204 No Content.
func (h *AuthHandler) LogoutHandler(c *gin.Context) {
	user, ok := h.principal(c)
	if !ok {
		return
	}

	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := h.tokenUseCase.Logout(c.Request.Context(), user, req.Refresh); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetProfileHandler returns the caller.
// GET /v1/auth/profile - Requires authentication.
func (h *AuthHandler) GetProfileHandler(c *gin.Context) {
	user, ok := h.principal(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, userDTO.ToUserResponse(user))
}

// UpdateProfileHandler changes the caller's names.
// PATCH /v1/auth/profile - Requires authentication.
func (h *AuthHandler) UpdateProfileHandler(c *gin.Context) {
	user, ok := h.principal(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	updated, err := h.userUseCase.UpdateProfile(c.Request.Context(), user.ID, req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, userDTO.ToUserResponse(updated))
}

// ChangePasswordHandler replaces the caller's password. Every token issued to the
// caller, including the one used for this request, stops validating.
// POST /v1/auth/change-password - Requires authentication. Returns 204 No Content.
func (h *AuthHandler) ChangePasswordHandler(c *gin.Context) {
	user, ok := h.principal(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.userUseCase.ChangePassword(c.Request.Context(), user.ID, req.ToInput()); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// PermissionsHandler lists the caller's permission codes.
// GET /v1/auth/permissions - Requires authentication.
func (h *AuthHandler) PermissionsHandler(c *gin.Context) {
	user, ok := h.principal(c)
	if !ok {
		return
	}

	codes, err := h.permissionUseCase.ListPermissions(c.Request.Context(), user)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPermissionsResponse(user, codes))
}

func (h *AuthHandler) principal(c *gin.Context) (*userDomain.User, bool) {
	user, ok := GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return nil, false
	}
	return user, true
}
