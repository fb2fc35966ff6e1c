package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"github.com/allisson/go-pwdhash"
	"golang.org/x/sync/semaphore"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

const (
	temporaryPasswordLength   = 16
	temporaryPasswordSymbols  = "!@#$%&*"
	temporaryPasswordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789" +
		temporaryPasswordSymbols

	// dummyPassword is hashed once at startup and verified whenever the caller has
	// no real hash to compare against.
	dummyPassword = "gatekeeper-timing-equalizer"
)

// passwordService implements PasswordService using Argon2id.
type passwordService struct {
	hasher    *pwdhash.PasswordHasher
	pool      *semaphore.Weighted
	dummyHash string
}

// NewPasswordService creates a PasswordService with the interactive Argon2id
// policy. At most workers hash or verify operations run concurrently.
func NewPasswordService(workers int) (PasswordService, error) {
	if workers < 1 {
		return nil, fmt.Errorf("password hash workers must be at least 1, got %d", workers)
	}

	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}

	dummyHash, err := hasher.Hash([]byte(dummyPassword))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash dummy password")
	}

	return &passwordService{
		hasher:    hasher,
		pool:      semaphore.NewWeighted(int64(workers)),
		dummyHash: dummyHash,
	}, nil
}

func (s *passwordService) Hash(ctx context.Context, plain string) (string, error) {
	if err := s.pool.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer s.pool.Release(1)

	hash, err := s.hasher.Hash([]byte(plain))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}
	return hash, nil
}

func (s *passwordService) Verify(ctx context.Context, plain string, hash string) (bool, error) {
	if err := s.pool.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer s.pool.Release(1)

	if hash == "" {
		_, _ = s.hasher.Verify([]byte(plain), s.dummyHash)
		return false, nil
	}

	ok, err := s.hasher.Verify([]byte(plain), hash)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to verify password")
	}
	return ok, nil
}

func (s *passwordService) GenerateTemporaryPassword() (string, error) {
	max := big.NewInt(int64(len(temporaryPasswordAlphabet)))

	for {
		var b strings.Builder
		b.Grow(temporaryPasswordLength)

		for range temporaryPasswordLength {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", apperrors.Wrap(err, "failed to generate temporary password")
			}
			b.WriteByte(temporaryPasswordAlphabet[n.Int64()])
		}

		password := b.String()
		if hasAllClasses(password) {
			return password, nil
		}
	}
}

func hasAllClasses(s string) bool {
	return strings.ContainsFunc(s, unicode.IsUpper) &&
		strings.ContainsFunc(s, unicode.IsLower) &&
		strings.ContainsFunc(s, unicode.IsDigit) &&
		strings.ContainsAny(s, temporaryPasswordSymbols)
}
