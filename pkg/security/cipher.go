package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/mediciel/clinic-records/internal/core/domain"
)

// FieldCipher encrypts free-text fields with AES-256-GCM. The key is the
// SHA-256 digest of a static passphrase; every ciphertext carries its own
// random nonce as a prefix.
type FieldCipher struct {
	aead cipher.AEAD
}

// NewFieldCipher derives the field key from passphrase.
func NewFieldCipher(passphrase string) (*FieldCipher, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("field cipher: empty passphrase")
	}
	key := sha256.Sum256([]byte(passphrase))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create AEAD: %w", err)
	}
	return &FieldCipher{aead: aead}, nil
}

// Encrypt returns base64(nonce || sealed plaintext).
func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Malformed or tampered input wraps domain.ErrDecryption.
func (c *FieldCipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: bad encoding", domain.ErrDecryption)
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns+c.aead.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", domain.ErrDecryption)
	}
	plain, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", domain.ErrDecryption)
	}
	return string(plain), nil
}
