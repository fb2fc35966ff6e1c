// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/validation"
)

// ErrorResponse represents a structured error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// HandleErrorGin maps domain errors to HTTP status codes and writes a JSON response.
//
// Credential failures always produce 401 with a generic message; the error code
// distinguishes expired from invalid tokens so clients know when to refresh.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	var statusCode int
	var errorResponse ErrorResponse

	switch {
	case apperrors.Is(err, apperrors.ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		errorResponse = ErrorResponse{
			Error:   "token_expired",
			Message: "The access token has expired",
		}

	case apperrors.Is(err, apperrors.ErrTokenInvalid):
		statusCode = http.StatusUnauthorized
		errorResponse = ErrorResponse{
			Error:   "token_invalid",
			Message: "The token is invalid or has been revoked",
		}

	case apperrors.Is(err, apperrors.ErrAuthenticationFailed):
		statusCode = http.StatusUnauthorized
		errorResponse = ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid credentials",
		}

	case apperrors.Is(err, apperrors.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		errorResponse = ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication is required",
		}

	case apperrors.Is(err, apperrors.ErrForbidden):
		statusCode = http.StatusForbidden
		errorResponse = ErrorResponse{
			Error:   "permission_denied",
			Message: "You don't have permission to access this resource",
		}

	case apperrors.Is(err, apperrors.ErrNotFound):
		statusCode = http.StatusNotFound
		errorResponse = ErrorResponse{
			Error:   "not_found",
			Message: "The requested resource was not found",
		}

	case apperrors.Is(err, apperrors.ErrConflict):
		statusCode = http.StatusConflict
		errorResponse = ErrorResponse{
			Error:   "conflict",
			Message: "A conflict occurred with existing data",
		}

	case apperrors.Is(err, apperrors.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errorResponse = ErrorResponse{
			Error:   "validation_error",
			Message: "The request contains invalid fields",
			Details: validation.FieldErrors(err),
		}
		if errorResponse.Details == nil {
			errorResponse.Message = err.Error()
		}

	case apperrors.Is(err, apperrors.ErrTooManyRequests):
		statusCode = http.StatusTooManyRequests
		errorResponse = ErrorResponse{
			Error:   "rate_limit_exceeded",
			Message: "Too many requests. Please retry after the specified delay.",
		}

	default:
		// For unknown/internal errors, don't expose details to the client
		statusCode = http.StatusInternalServerError
		errorResponse = ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		}
	}

	// Log the full error details (including wrapped errors)
	if logger != nil {
		level := slog.LevelWarn
		if statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_code", errorResponse.Error),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, errorResponse)
}

// HandleBadRequestGin writes a 400 Bad Request response for malformed JSON or parameters.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "bad_request",
		Message: err.Error(),
	})
}

// HandleValidationErrorGin writes a 400 Bad Request response for validation errors,
// including per-field messages when the error carries them.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	errorResponse := ErrorResponse{
		Error:   "validation_error",
		Message: "The request contains invalid fields",
		Details: validation.FieldErrors(err),
	}
	if errorResponse.Details == nil {
		errorResponse.Message = err.Error()
	}

	c.JSON(http.StatusBadRequest, errorResponse)
}
