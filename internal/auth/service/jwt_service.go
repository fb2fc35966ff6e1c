package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// MinSigningKeyLength is the minimum HS256 key size accepted.
const MinSigningKeyLength = 32

// tokenClaims is the JWT payload. Registered claims carry sub, iss, iat, exp and jti.
type tokenClaims struct {
	jwt.RegisteredClaims

	TokenType    authDomain.TokenType `json:"token_type"`
	TokenVersion int64                `json:"token_version"`
}

type jwtService struct {
	key    []byte
	issuer string
}

// NewJWTService creates an HS256 JWTService. key must be at least 32 bytes.
func NewJWTService(key []byte, issuer string) (JWTService, error) {
	if len(key) < MinSigningKeyLength {
		return nil, fmt.Errorf("jwt signing key must be at least %d bytes", MinSigningKeyLength)
	}

	k := make([]byte, len(key))
	copy(k, key)

	return &jwtService{key: k, issuer: issuer}, nil
}

func (s *jwtService) Issue(
	userID uuid.UUID,
	tokenType authDomain.TokenType,
	version int64,
	ttl time.Duration,
) (string, *authDomain.Claims, error) {
	now := time.Now().UTC()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        ulid.Make().String(),
		},
		TokenType:    tokenType,
		TokenVersion: version,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", nil, apperrors.Wrap(err, "failed to sign token")
	}

	return signed, toDomainClaims(userID, &claims), nil
}

func (s *jwtService) Parse(raw string) (*authDomain.Claims, error) {
	var claims tokenClaims

	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		// The signature is verified before claims, so an expired error here
		// belongs to a genuine token.
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenInvalidIssuer) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.Wrap(apperrors.ErrTokenInvalid, err.Error())
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrTokenInvalid, "malformed subject")
	}

	switch claims.TokenType {
	case authDomain.AccessToken, authDomain.RefreshToken:
	default:
		return nil, apperrors.Wrap(apperrors.ErrTokenInvalid, "unknown token type")
	}

	if claims.ID == "" || claims.TokenVersion < 0 {
		return nil, apperrors.Wrap(apperrors.ErrTokenInvalid, "malformed claims")
	}

	return toDomainClaims(userID, &claims), nil
}

func toDomainClaims(userID uuid.UUID, c *tokenClaims) *authDomain.Claims {
	return &authDomain.Claims{
		UserID:    userID,
		Type:      c.TokenType,
		Version:   c.TokenVersion,
		JTI:       c.ID,
		IssuedAt:  c.IssuedAt.Time,
		ExpiresAt: c.ExpiresAt.Time,
	}
}
