package tokenstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	keySize = 32
	// MinSecretLength is the shortest ENCRYPTION_KEY accepted.
	MinSecretLength = 16
)

var hkdfInfo = []byte("quickbidz-storefront auth cookie v1")

// ErrMalformedCiphertext is returned for values that were not produced by
// Encrypt with the same secret.
var ErrMalformedCiphertext = errors.New("malformed ciphertext")

// Cipher seals short strings with AES-256-GCM under a key derived from a
// server-side secret.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives the AES key from secret with HKDF-SHA256.
func NewCipher(secret string) (*Cipher, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("tokenstore: secret must be at least %d bytes", MinSecretLength)
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, hkdfInfo), key); err != nil {
		return nil, fmt.Errorf("tokenstore: derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("tokenstore: init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("tokenstore: init gcm: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt returns base64url(nonce || ciphertext).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("tokenstore: nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Tampered or foreign values fail authentication.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("tokenstore: %w: %v", ErrMalformedCiphertext, err)
	}
	size := c.aead.NonceSize()
	if len(sealed) < size+c.aead.Overhead() {
		return "", fmt.Errorf("tokenstore: %w: too short", ErrMalformedCiphertext)
	}
	plain, err := c.aead.Open(nil, sealed[:size], sealed[size:], nil)
	if err != nil {
		return "", fmt.Errorf("tokenstore: %w: %v", ErrMalformedCiphertext, err)
	}
	return string(plain), nil
}

// GenerateSecret returns a random 32-byte key encoded as standard base64,
// suitable for ENCRYPTION_KEY.
func GenerateSecret() (string, error) {
	buf := make([]byte, keySize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
