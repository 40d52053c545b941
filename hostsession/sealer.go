// Package hostsession is the host's secure session mechanism: it seals session
// records into encrypted, tamper-evident cookie values and opens them again.
// The backend derives the same key from the shared secret, which is what lets
// it trust the relayed cookie value.
package hostsession

import (
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"github.com/go-jose/go-jose/v4"
	apperrors "github.com/jrsteele09/go-session-relay/internal/errors"
	"github.com/jrsteele09/go-session-relay/sessions"
	"golang.org/x/crypto/hkdf"
)

const (
	keyInfo         = "go-session-relay generated encryption key"
	minSecretLength = 32
	expiryHeader    = jose.HeaderKey("exp")
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// DeriveKey turns the shared session secret into a 256-bit content key.
func DeriveKey(secret string) ([]byte, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d characters", minSecretLength)
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	return key, nil
}

// Sealer encrypts records as compact JWE (dir + A256GCM).
type Sealer struct {
	key    []byte
	maxAge time.Duration
}

// NewSealer creates a Sealer keyed from secret. Sealed values stop opening
// once maxAge has elapsed.
func NewSealer(secret string, maxAge time.Duration) (*Sealer, error) {
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	return &Sealer{key: key, maxAge: maxAge}, nil
}

// Seal encrypts rec.
func (s *Sealer) Seal(rec sessions.Record) (string, error) {
	if rec.IsEmpty() {
		return "", fmt.Errorf("seal: %w", apperrors.ErrNoSession)
	}

	opts := (&jose.EncrypterOptions{}).
		WithType("JWT").
		WithHeader(expiryHeader, NowTimeFunc().Add(s.maxAge).Unix())
	enc, err := jose.NewEncrypter(jose.A256GCM, jose.Recipient{Algorithm: jose.DIRECT, Key: s.key}, opts)
	if err != nil {
		return "", fmt.Errorf("create encrypter: %w", err)
	}

	obj, err := enc.Encrypt(rec)
	if err != nil {
		return "", fmt.Errorf("encrypt session: %w", err)
	}
	sealed, err := obj.CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("serialize session: %w", err)
	}
	return sealed, nil
}

// Open decrypts a value produced by Seal. Tampered, foreign or expired values
// fail.
func (s *Sealer) Open(sealed string) (sessions.Record, error) {
	obj, err := jose.ParseEncryptedCompact(sealed, []jose.KeyAlgorithm{jose.DIRECT}, []jose.ContentEncryption{jose.A256GCM})
	if err != nil {
		return nil, fmt.Errorf("parse sealed session: %w", err)
	}
	if exp, ok := obj.Header.ExtraHeaders[expiryHeader].(float64); ok {
		if !NowTimeFunc().Before(time.Unix(int64(exp), 0)) {
			return nil, fmt.Errorf("open sealed session: %w", apperrors.ErrExpired)
		}
	}

	plain, err := obj.Decrypt(s.key)
	if err != nil {
		return nil, fmt.Errorf("decrypt sealed session: %w", err)
	}
	return sessions.Record(plain), nil
}
