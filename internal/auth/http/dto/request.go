// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	userUsecase "github.com/allisson/gatekeeper/internal/user/usecase"
	customValidation "github.com/allisson/gatekeeper/internal/validation"
)

// RegisterRequest is the body of POST /v1/auth/register.
type RegisterRequest struct {
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// ToInput converts the request to a use case input. Field rules are enforced there.
func (r RegisterRequest) ToInput() userUsecase.RegisterInput {
	return userUsecase.RegisterInput{
		Email:           r.Email,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Password:        r.Password,
		PasswordConfirm: r.PasswordConfirm,
	}
}

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // request credential
}

// Validate checks if the login request is valid.
func (r *LoginRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Password, validation.Required),
	)
	return customValidation.WrapValidationError(err)
}

// RefreshTokenRequest is the body of POST /v1/auth/refresh and /v1/auth/logout.
type RefreshTokenRequest struct {
	Refresh string `json:"refresh"`
}

// Validate checks if the refresh token request is valid.
func (r *RefreshTokenRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Refresh, validation.Required, customValidation.NotBlank),
	)
	return customValidation.WrapValidationError(err)
}

// UpdateProfileRequest is the body of PATCH /v1/auth/profile. Omitted fields are kept.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// ToInput converts the request to a use case input.
func (r UpdateProfileRequest) ToInput() userUsecase.UpdateProfileInput {
	return userUsecase.UpdateProfileInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
}

// ChangePasswordRequest is the body of POST /v1/auth/change-password.
type ChangePasswordRequest struct {
	OldPassword        string `json:"old_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

// ToInput converts the request to a use case input.
func (r ChangePasswordRequest) ToInput() userUsecase.ChangePasswordInput {
	return userUsecase.ChangePasswordInput{
		OldPassword:        r.OldPassword,
		NewPassword:        r.NewPassword,
		NewPasswordConfirm: r.NewPasswordConfirm,
	}
}
