// Package service provides technical services for authentication operations.
//
// This package implements bearer token signing and verification, plus password
// hashing behind a bounded worker pool.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
)

// JWTService signs and verifies bearer tokens.
type JWTService interface {
	// Issue signs a token of the given type embedding the user's current
	// generation counter. Returns the encoded token and the claims it carries.
	Issue(
		userID uuid.UUID,
		tokenType authDomain.TokenType,
		version int64,
		ttl time.Duration,
	) (string, *authDomain.Claims, error)

	// Parse verifies signature, structure and expiry. Returns ErrTokenInvalid for
	// anything but a well-formed, correctly signed token, and ErrTokenExpired for a
	// valid token past its expiry. It does not consult the datastore.
	Parse(token string) (*authDomain.Claims, error)
}

// PasswordService hashes and verifies user passwords.
//
// Argon2id hashing is deliberately slow, so every Hash and Verify call acquires
// a slot from a bounded pool first. Waiting honors ctx cancellation.
type PasswordService interface {
	// Hash returns the Argon2id hash of plain.
	Hash(ctx context.Context, plain string) (string, error)

	// Verify reports whether plain matches hash. An empty hash verifies against a
	// dummy hash and returns false, so unknown accounts cost the same as wrong passwords.
	Verify(ctx context.Context, plain string, hash string) (bool, error)

	// GenerateTemporaryPassword returns a random 16-character password containing
	// upper and lower case letters, digits and symbols.
	GenerateTemporaryPassword() (string, error)
}
