// Package votecrypt seals vote plaintexts with AES-256-GCM before they
// reach durable storage.
//
// Tokens are hex(nonce || ciphertext || tag). The associated data is
// authenticated but not encrypted; callers bind each ballot to its
// election id so a ciphertext recorded for one election cannot be
// replayed into another.
package votecrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const (
	// KeySize is the required symmetric key length (AES-256).
	KeySize = 32

	nonceSize = 12
)

var (
	// ErrFormat marks tokens that cannot be decoded at all: not hex, or
	// too short to hold a nonce and an authentication tag.
	ErrFormat = errors.New("ballot token is malformed")

	// ErrIntegrity marks tokens whose authentication tag does not
	// verify: tampered ciphertext, wrong key, or wrong associated data.
	ErrIntegrity = errors.New("ballot integrity check failed")
)

// Codec is a process-wide authenticated encryption codec. The key is
// loaded once at startup; Codec itself is immutable and safe for
// concurrent use.
type Codec struct {
	aead cipher.AEAD
}

func New(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("ballot key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random 96-bit nonce and returns
// the printable token. Nonce reuse would break GCM, so the nonce always
// comes from crypto/rand.
func (c *Codec) Encrypt(plaintext string, associatedData string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), []byte(associatedData))
	return hex.EncodeToString(append(nonce, sealed...)), nil
}

// Decrypt opens a token produced by Encrypt. The associated data must
// match the value used at encryption time.
func (c *Codec) Decrypt(token string, associatedData string) (string, error) {
	raw, err := hex.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if len(raw) < nonceSize+c.aead.Overhead() {
		return "", fmt.Errorf("%w: %d bytes is too short", ErrFormat, len(raw))
	}
	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], []byte(associatedData))
	if err != nil {
		return "", ErrIntegrity
	}
	return string(plaintext), nil
}
