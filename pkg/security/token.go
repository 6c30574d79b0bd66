package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mediciel/clinic-records/internal/core/domain"
)

// MinSecretLength is the shortest signing secret NewTokenService accepts.
const MinSecretLength = 16

const defaultIssuer = "mediciel"

// ErrSecretTooShort is returned by NewTokenService for secrets under MinSecretLength bytes.
var ErrSecretTooShort = fmt.Errorf("token secret must be at least %d bytes", MinSecretLength)

// Claims is the JWT payload. Subject and expiry travel as registered claims.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 tokens with a single static secret.
type TokenService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces time.Now for issuing and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// WithIssuer sets the iss claim written into new tokens.
func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) { s.issuer = issuer }
}

// NewTokenService fails fast when the secret is too short to be trusted.
func NewTokenService(secret string, opts ...TokenOption) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	s := &TokenService{
		secret: []byte(secret),
		issuer: defaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token binding subject and role until expiresAt. Each token
// carries a random jti, so two logins in the same second still differ.
func (s *TokenService) Issue(subject string, role domain.Role, expiresAt time.Time) (string, error) {
	if subject == "" || !role.Valid() {
		return "", fmt.Errorf("issue token: %w", domain.ErrInvalidInput)
	}
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, encoding and expiry, and returns the decoded claims.
// It does not know whether the subject still exists; that is the credential
// store's call.
func (s *TokenService) Verify(token string) (*domain.Claims, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", domain.ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}

	role := domain.Role(claims.Role)
	if !role.Valid() || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject or role", domain.ErrInvalidToken)
	}

	return &domain.Claims{
		Subject:   claims.Subject,
		Role:      role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
