package domain

import (
	"time"

	"github.com/google/uuid"
)

// Claims is the verified content of a bearer token.
type Claims struct {
	UserID    uuid.UUID
	Type      TokenType
	Version   int64
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is the result of a successful login or registration.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// RevokedToken is an explicitly revoked refresh token. It can be pruned once
// ExpiresAt has passed since the token would be rejected anyway.
type RevokedToken struct {
	JTI       string
	UserID    uuid.UUID
	ExpiresAt time.Time
	RevokedAt time.Time
}

// IssuedAccessToken is the result of a refresh.
type IssuedAccessToken struct {
	Token     string
	ExpiresAt time.Time
}
