// Package dto provides data transfer objects for the user HTTP layer.
package dto

import (
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	appValidation "github.com/allisson/gatekeeper/internal/validation"
)

// CreateUserRequest is the body of POST /v1/users.
type CreateUserRequest struct {
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Password  string  `json:"password"`
	RoleID    *string `json:"role_id"`
	IsActive  *bool   `json:"is_active"`
}

// Validate checks the shape of the request. Field rules such as password
// strength are enforced by the use case.
func (r *CreateUserRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.RoleID, validation.NilOrNotEmpty, validation.By(isUUIDString)),
	)
	return appValidation.WrapValidationError(err)
}

// UpdateUserRequest is the body of PATCH /v1/users/:id. An empty role_id
// string or an explicit null removes the role.
type UpdateUserRequest struct {
	FirstName *string      `json:"first_name"`
	LastName  *string      `json:"last_name"`
	RoleID    OptionalUUID `json:"role_id"`
}

// Validate checks the shape of the request.
func (r *UpdateUserRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.RoleID, validation.By(func(value interface{}) error {
			v, _ := value.(OptionalUUID)
			if v.Set && v.Value != nil {
				return isUUIDString(*v.Value)
			}
			return nil
		})),
	)
	return appValidation.WrapValidationError(err)
}

func isUUIDString(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	default:
		return validation.NewError("validation_uuid", "must be a valid UUID")
	}
	if s == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return validation.NewError("validation_uuid", "must be a valid UUID")
	}
	return nil
}
