package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	authService "github.com/allisson/gatekeeper/internal/auth/service"
	"github.com/allisson/gatekeeper/internal/config"
)

// signingKeyNames lists the environment variables a new key set is printed for.
var signingKeyNames = []string{"AUTH_JWT_SIGNING_KEY", "AUDIT_SIGNING_KEY"}

// RunCreateSigningKey generates fresh random keys for token and audit signing and
// prints them as environment assignments. With a KMS key URI each key is encrypted
// and the matching KMS_KEY_URI line is printed as well.
func RunCreateSigningKey(
	ctx context.Context,
	kms authService.KMSService,
	writer io.Writer,
	kmsKeyURI string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	keys := make(map[string]string, len(signingKeyNames))
	for _, name := range signingKeyNames {
		raw := make([]byte, config.MinSigningKeyLength)
		if _, err := rand.Read(raw); err != nil {
			return fmt.Errorf("failed to generate %s: %w", name, err)
		}

		value := base64.StdEncoding.EncodeToString(raw)
		if kmsKeyURI != "" {
			encrypted, err := kms.Encrypt(ctx, kmsKeyURI, raw)
			if err != nil {
				return fmt.Errorf("failed to encrypt %s: %w", name, err)
			}
			value = encrypted
		}
		keys[name] = value
	}

	if format == "json" {
		out := map[string]any{"kms_key_uri": kmsKeyURI}
		for name, value := range keys {
			out[name] = value
		}
		return writeJSON(writer, out)
	}

	if kmsKeyURI != "" {
		_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=%s\n", kmsKeyURI)
	}
	for _, name := range signingKeyNames {
		_, _ = fmt.Fprintf(writer, "%s=%s\n", name, keys[name])
	}
	return nil
}
