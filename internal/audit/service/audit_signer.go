// Package service provides the audit trail signing service.
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
)

const (
	signingKeyInfo   = "audit-log-signing-v1"
	signingKeyLength = 32
)

// AuditSigner signs audit entries and verifies stored signatures.
type AuditSigner interface {
	// Enabled reports whether a signing key is configured.
	Enabled() bool

	// Sign returns the HMAC-SHA256 signature of the entry.
	Sign(log *auditDomain.AuditLog) ([]byte, error)

	// Verify returns ErrSignatureInvalid when the stored signature does not match.
	Verify(log *auditDomain.AuditLog) error
}

type auditSigner struct {
	masterKey []byte
}

// NewAuditSigner creates an HMAC-based signer. The per-use signing key is
// derived from masterKey with HKDF-SHA256. A nil or empty masterKey returns a
// signer with signing disabled.
func NewAuditSigner(masterKey []byte) AuditSigner {
	key := make([]byte, len(masterKey))
	copy(key, masterKey)
	return &auditSigner{masterKey: key}
}

func (a *auditSigner) Enabled() bool {
	return len(a.masterKey) > 0
}

// deriveSigningKey separates the configured secret from the key actually fed to HMAC.
func (a *auditSigner) deriveSigningKey() ([]byte, error) {
	reader := hkdf.New(sha256.New, a.masterKey, nil, []byte(signingKeyInfo))

	signingKey := make([]byte, signingKeyLength)
	if _, err := io.ReadFull(reader, signingKey); err != nil {
		return nil, err
	}

	return signingKey, nil
}

// canonicalize converts an entry to the byte representation that is signed.
// Format: id || actor_id || action || resource_type || resource_id || outcome ||
// metadata || ip || user_agent || correlation_id || created_at.
// Variable-length fields are length-prefixed to prevent ambiguity.
func canonicalize(log *auditDomain.AuditLog) ([]byte, error) {
	buf := make([]byte, 0, 512)

	buf = append(buf, log.ID[:]...)
	if log.ActorID != nil {
		buf = append(buf, 1)
		buf = append(buf, log.ActorID[:]...)
	} else {
		buf = append(buf, 0)
	}

	buf = appendLengthPrefixed(buf, []byte(log.Action))
	buf = appendLengthPrefixed(buf, []byte(log.ResourceType))
	buf = appendLengthPrefixed(buf, []byte(log.ResourceID))
	buf = appendLengthPrefixed(buf, []byte(log.Outcome))

	if len(log.Metadata) > 0 {
		// encoding/json sorts map keys, so the encoding is deterministic.
		metadataBytes, err := json.Marshal(log.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		buf = appendLengthPrefixed(buf, metadataBytes)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	buf = appendLengthPrefixed(buf, []byte(log.IPAddress))
	buf = appendLengthPrefixed(buf, []byte(log.UserAgent))
	buf = appendLengthPrefixed(buf, []byte(log.CorrelationID))

	// Microsecond precision matches what PostgreSQL and MySQL DATETIME(6) store.
	buf = binary.BigEndian.AppendUint64(buf, uint64(log.CreatedAt.UTC().UnixMicro()))

	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

func (a *auditSigner) Sign(log *auditDomain.AuditLog) ([]byte, error) {
	if !a.Enabled() {
		return nil, auditDomain.ErrSigningDisabled
	}

	signingKey, err := a.deriveSigningKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer clear(signingKey)

	canonical, err := canonicalize(log)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize log: %w", err)
	}

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

func (a *auditSigner) Verify(log *auditDomain.AuditLog) error {
	if !log.IsSigned() {
		return errors.Join(auditDomain.ErrSignatureInvalid, errors.New("entry is not signed"))
	}

	expectedSig, err := a.Sign(log)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(log.Signature, expectedSig) {
		return auditDomain.ErrSignatureInvalid
	}

	return nil
}
