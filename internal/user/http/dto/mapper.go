package dto

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/user/domain"
	"github.com/allisson/gatekeeper/internal/user/usecase"
)

// OptionalUUID distinguishes an absent JSON field from an explicit null or empty string.
type OptionalUUID struct {
	Set   bool
	Value *string
}

// UnmarshalJSON records that the field was present.
func (o *OptionalUUID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// ToCreateUserInput converts a validated CreateUserRequest. Accounts are active
// unless is_active is explicitly false.
func ToCreateUserInput(req CreateUserRequest) usecase.CreateUserInput {
	input := usecase.CreateUserInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		RoleID:    parseOptionalUUID(req.RoleID),
		IsActive:  true,
	}
	if req.IsActive != nil {
		input.IsActive = *req.IsActive
	}
	return input
}

// ToUpdateUserInput converts a validated UpdateUserRequest.
func ToUpdateUserInput(req UpdateUserRequest) usecase.UpdateUserInput {
	input := usecase.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if req.RoleID.Set {
		input.RoleID = parseOptionalUUID(req.RoleID.Value)
		input.ClearRole = input.RoleID == nil
	}
	return input
}

func parseOptionalUUID(s *string) *uuid.UUID {
	if s == nil || *s == "" {
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}
	return &id
}

// ToUserResponse converts a domain user to its API representation.
func ToUserResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		FullName:    user.FullName(),
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
	if user.HasRole() {
		id := *user.RoleID
		resp.RoleID = &id
		if user.RoleName != "" {
			name := user.RoleName
			resp.RoleName = &name
		}
	}
	return resp
}

// ToListUsersResponse converts a page of users.
func ToListUsersResponse(users []*domain.User) ListUsersResponse {
	data := make([]UserResponse, 0, len(users))
	for _, user := range users {
		data = append(data, ToUserResponse(user))
	}
	return ListUsersResponse{Data: data}
}
