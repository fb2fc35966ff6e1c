package dto

import (
	"time"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	userDomain "github.com/allisson/gatekeeper/internal/user/domain"
	userDTO "github.com/allisson/gatekeeper/internal/user/http/dto"
)

// TokenPairResponse carries a freshly issued access and refresh token.
type TokenPairResponse struct {
	Access           string    `json:"access"`
	Refresh          string    `json:"refresh"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User   userDTO.UserResponse `json:"user"`
	Tokens TokenPairResponse    `json:"tokens"`
}

// RefreshResponse is returned by refresh. The refresh token is not rotated.
type RefreshResponse struct {
	Access          string    `json:"access"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

// PermissionsResponse lists the caller's permission codes.
type PermissionsResponse struct {
	Role        *string  `json:"role"`
	Permissions []string `json:"permissions"`
}

// MapAuthResponse builds the register and login response.
func MapAuthResponse(user *userDomain.User, pair *authDomain.TokenPair) AuthResponse {
	return AuthResponse{
		User: userDTO.ToUserResponse(user),
		Tokens: TokenPairResponse{
			Access:           pair.AccessToken,
			Refresh:          pair.RefreshToken,
			AccessExpiresAt:  pair.AccessExpiresAt,
			RefreshExpiresAt: pair.RefreshExpiresAt,
		},
	}
}

// MapRefreshResponse builds the refresh response.
func MapRefreshResponse(access *authDomain.IssuedAccessToken) RefreshResponse {
	return RefreshResponse{
		Access:          access.Token,
		AccessExpiresAt: access.ExpiresAt,
	}
}

// MapPermissionsResponse builds the permissions response. Codes are never null.
func MapPermissionsResponse(user *userDomain.User, codes []string) PermissionsResponse {
	resp := PermissionsResponse{Permissions: codes}
	if resp.Permissions == nil {
		resp.Permissions = []string{}
	}
	if user.RoleName != "" {
		name := user.RoleName
		resp.Role = &name
	}
	return resp
}
