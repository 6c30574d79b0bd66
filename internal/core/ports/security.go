package ports

import (
	"context"
	"time"

	"github.com/mediciel/clinic-records/internal/core/domain"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(subject string, role domain.Role, expiresAt time.Time) (string, error)
}

// TokenVerifier checks signature and expiry only; it knows nothing about
// stored sessions.
type TokenVerifier interface {
	Verify(token string) (*domain.Claims, error)
}

// TokenService is both halves.
type TokenService interface {
	TokenIssuer
	TokenVerifier
}

// FieldCipher reversibly protects sensitive record fields.
type FieldCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SessionLocker serializes session mutation for one principal across
// processes. Acquire reports false when someone else holds the lock.
type SessionLocker interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}
