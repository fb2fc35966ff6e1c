package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"gocloud.dev/secrets"

	"github.com/allisson/gatekeeper/internal/config"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KMSService wraps signing keys with a KMS provider reachable through gocloud.dev/secrets.
// Supported URIs: gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://
type KMSService interface {
	// Encrypt wraps plaintext and returns the ciphertext as standard base64.
	Encrypt(ctx context.Context, keyURI string, plaintext []byte) (string, error)

	// Decrypt unwraps base64 ciphertext produced by Encrypt.
	Decrypt(ctx context.Context, keyURI, ciphertext string) ([]byte, error)
}

type kmsService struct{}

// NewKMSService creates a new KMS service instance.
func NewKMSService() KMSService {
	return &kmsService{}
}

func (k *kmsService) openKeeper(ctx context.Context, keyURI string) (*secrets.Keeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

func (k *kmsService) Encrypt(ctx context.Context, keyURI string, plaintext []byte) (string, error) {
	keeper, err := k.openKeeper(ctx, keyURI)
	if err != nil {
		return "", err
	}
	defer func() { _ = keeper.Close() }()

	ciphertext, err := keeper.Encrypt(ctx, plaintext)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt with KMS: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (k *kmsService) Decrypt(ctx context.Context, keyURI, ciphertext string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("ciphertext must be base64-encoded: %w", err)
	}

	keeper, err := k.openKeeper(ctx, keyURI)
	if err != nil {
		return nil, err
	}
	defer func() { _ = keeper.Close() }()

	plaintext, err := keeper.Decrypt(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt with KMS: %w", err)
	}
	return plaintext, nil
}

// ResolveSigningKey returns the raw bytes of a configured signing key. Without a
// KMS key URI the value is plain base64; with one it is KMS ciphertext.
func ResolveSigningKey(ctx context.Context, kms KMSService, keyURI, name, value string) ([]byte, error) {
	var (
		key []byte
		err error
	)
	if keyURI == "" {
		key, err = base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be base64-encoded: %w", name, err)
		}
	} else {
		key, err = kms.Decrypt(ctx, keyURI, value)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt %s: %w", name, err)
		}
	}

	if len(key) < config.MinSigningKeyLength {
		return nil, fmt.Errorf("%s must decode to at least %d bytes", name, config.MinSigningKeyLength)
	}
	return key, nil
}
