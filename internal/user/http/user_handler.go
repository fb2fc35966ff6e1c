// Package http provides HTTP handlers for administrative user management.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/allisson/gatekeeper/internal/auth/http"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/httputil"
	"github.com/allisson/gatekeeper/internal/user/domain"
	"github.com/allisson/gatekeeper/internal/user/http/dto"
	"github.com/allisson/gatekeeper/internal/user/usecase"
)

// UserHandler handles administrative user requests. Routes are expected to be
// guarded by AuthenticationMiddleware and the matching permission middleware.
type UserHandler struct {
	userUseCase usecase.UseCase
	logger      *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userUseCase usecase.UseCase, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
		logger:      logger,
	}
}

// ListHandler lists users.
// GET /v1/users?email=&role_id=&is_active=&search=&ordering=&offset=0&limit=50
// Requires users.view. Returns 200 OK with {data: [...]}.
func (h *UserHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	roleID, err := httputil.ParseOptionalUUIDQuery(c, "role_id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	isActive, err := httputil.ParseOptionalBoolQuery(c, "is_active")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	filter := domain.UserFilter{
		Email:    c.Query("email"),
		RoleID:   roleID,
		IsActive: isActive,
		Search:   c.Query("search"),
		OrderBy:  domain.UserOrdering(c.Query("ordering")),
	}

	users, err := h.userUseCase.ListUsers(c.Request.Context(), filter, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToListUsersResponse(users))
}

// CreateHandler creates a user.
// POST /v1/users. Requires users.create. Returns 201 Created.
func (h *UserHandler) CreateHandler(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	user, err := h.userUseCase.CreateUser(c.Request.Context(), actorID, dto.ToCreateUserInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserResponse(user))
}

// GetHandler returns a single user.
// GET /v1/users/:id. Requires users.view.
func (h *UserHandler) GetHandler(c *gin.Context) {
	id, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	user, err := h.userUseCase.GetUser(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// UpdateHandler applies partial administrative changes.
// PATCH /v1/users/:id. Requires users.edit.
func (h *UserHandler) UpdateHandler(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}

	id, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	user, err := h.userUseCase.UpdateUser(c.Request.Context(), actorID, id, dto.ToUpdateUserInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// DeactivateHandler soft-deletes a user and invalidates all of their tokens.
// POST /v1/users/:id/deactivate. Requires users.delete. Returns 200 OK with the user.
func (h *UserHandler) DeactivateHandler(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}

	id, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	user, err := h.userUseCase.DeactivateUser(c.Request.Context(), actorID, id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// ResetPasswordHandler assigns a temporary password and returns it once.
// POST /v1/users/:id/reset-password. Requires users.edit.
func (h *UserHandler) ResetPasswordHandler(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}

	id, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	temporary, err := h.userUseCase.ResetPassword(c.Request.Context(), actorID, id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, dto.ResetPasswordResponse{TemporaryPassword: temporary})
}

func (h *UserHandler) actor(c *gin.Context) (uuid.UUID, bool) {
	user, ok := authHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return uuid.Nil, false
	}
	return user.ID, true
}
