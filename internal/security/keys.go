package security

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrConfiguration is returned when the signing secret is missing, empty, or not valid base64.
var ErrConfiguration = errors.New("invalid signing configuration")

// SigningKey is the symmetric HMAC key used to sign and verify tokens. It is immutable once derived
// and safe for concurrent use.
type SigningKey struct {
	b []byte
}

// Key returns k itself so an eagerly derived key can be used wherever a KeyProvider is expected.
func (k *SigningKey) Key() (*SigningKey, error) {
	return k, nil
}

// Bytes returns a copy of the raw key material.
func (k *SigningKey) Bytes() []byte {
	out := make([]byte, len(k.b))
	copy(out, k.b)
	return out
}

// KeyProvider yields the signing key. Implementations must return the same key on every call.
type KeyProvider interface {
	Key() (*SigningKey, error)
}

// DeriveSigningKey decodes the base64 secret into a SigningKey. Padded and unpadded standard
// base64 are accepted. The error never includes the secret.
func DeriveSigningKey(secret string) (*SigningKey, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("%w: secret is empty", ErrConfiguration)
	}
	b, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		b, err = base64.RawStdEncoding.DecodeString(secret)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: secret is not valid base64", ErrConfiguration)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: secret decodes to zero bytes", ErrConfiguration)
	}
	return &SigningKey{b: b}, nil
}

// SigningKeyCache derives the signing key on first use and memoizes it. Concurrent first callers
// block until the single derivation finishes and then all observe the same key (or the same error).
type SigningKeyCache struct {
	load func() (*SigningKey, error)
}

// NewSigningKeyCache returns a cache for the given base64 secret. Nothing is derived until Key is called.
func NewSigningKeyCache(secret string) *SigningKeyCache {
	return &SigningKeyCache{
		load: sync.OnceValues(func() (*SigningKey, error) {
			return DeriveSigningKey(secret)
		}),
	}
}

// Key returns the memoized signing key, deriving it on the first call.
func (c *SigningKeyCache) Key() (*SigningKey, error) {
	return c.load()
}
