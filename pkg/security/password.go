// Package security holds the cryptographic primitives of the clinic backend:
// salted password digests, signed session tokens, and reversible field
// encryption for patient identifiers.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Changing any of them invalidates every stored digest.
const (
	SaltLength     = 16
	argonTime      = 1
	argonMemory    = 64 * 1024
	argonThreads   = 4
	argonKeyLength = 32
)

// GenerateSalt returns SaltLength random bytes, base64 encoded.
func GenerateSalt() (string, error) {
	b := make([]byte, SaltLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// HashPassword derives the digest stored for password under salt.
// It is deterministic: the same inputs always produce the same digest.
func HashPassword(password, salt string) string {
	key := argon2.IDKey([]byte(password), []byte(salt), argonTime, argonMemory, argonThreads, argonKeyLength)
	return base64.RawStdEncoding.EncodeToString(key)
}

// VerifyPassword recomputes the digest of candidate and compares it with the
// stored one in constant time.
func VerifyPassword(candidate, salt, digest string) bool {
	computed := HashPassword(candidate, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}
