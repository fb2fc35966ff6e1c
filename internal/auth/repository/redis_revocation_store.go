package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// RevocationKeyPrefix namespaces revocation keys in Redis.
const RevocationKeyPrefix = "gatekeeper:revoked:"

// RedisRevocationStore keeps revoked refresh tokens as Redis keys that expire
// together with the token, so nothing ever needs pruning.
type RedisRevocationStore struct {
	client redis.Cmdable
}

// NewRedisRevocationStore creates a new RedisRevocationStore.
func NewRedisRevocationStore(client redis.Cmdable) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

// Create stores the jti with a TTL equal to the token's remaining lifetime.
// A token that already expired is skipped.
func (s *RedisRevocationStore) Create(ctx context.Context, token *authDomain.RevokedToken) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := s.client.Set(ctx, RevocationKeyPrefix+token.JTI, token.UserID.String(), ttl).Err(); err != nil {
		return apperrors.Wrap(err, "failed to revoke token")
	}
	return nil
}

// IsRevoked reports whether jti has been revoked.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, RevocationKeyPrefix+jti).Result()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check token revocation")
	}
	return n > 0, nil
}

// DeleteExpired is a no-op; Redis expires keys on its own.
func (s *RedisRevocationStore) DeleteExpired(context.Context, time.Time, bool) (int64, error) {
	return 0, nil
}
