// Package secret seals small values, such as mail access tokens, for storage.
package secret

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

// ErrNoKey is returned by NewSealer when no key is configured.
var ErrNoKey = errors.New("secret: no key configured")

// Sealer encrypts and authenticates values with NaCl secretbox.
type Sealer struct {
	key [keySize]byte
}

// NewSealer accepts a 64-character hex key or a raw 32-byte key.
func NewSealer(key string) (*Sealer, error) {
	if key == "" {
		return nil, ErrNoKey
	}

	var raw []byte
	if decoded, err := hex.DecodeString(key); err == nil && len(decoded) == keySize {
		raw = decoded
	} else if len(key) == keySize {
		raw = []byte(key)
	} else {
		return nil, fmt.Errorf("secret: key must be %d bytes or %d hex characters", keySize, keySize*2)
	}

	s := &Sealer{}
	copy(s.key[:], raw)
	return s, nil
}

// Seal returns base64(nonce || box).
func (s *Sealer) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("secret: generating nonce: %w", err)
	}
	out := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal. It fails if the value was tampered with or sealed under
// a different key.
func (s *Sealer) Open(sealed string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("secret: decoding: %w", err)
	}
	if len(data) < nonceSize+secretbox.Overhead {
		return "", errors.New("secret: sealed value too short")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], data[:nonceSize])
	plain, ok := secretbox.Open(nil, data[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", errors.New("secret: authentication failed")
	}
	return string(plain), nil
}
