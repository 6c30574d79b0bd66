package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mediciel/clinic-records/internal/core/domain"
)

const testSecret = "0123456789abcdef-test"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTokenService(t *testing.T, clock *fakeClock) *TokenService {
	t.Helper()
	svc, err := NewTokenService(testSecret, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokenService returned error: %v", err)
	}
	return svc
}

func TestNewTokenService_RejectsShortSecret(t *testing.T) {
	if _, err := NewTokenService("short"); !errors.Is(err, ErrSecretTooShort) {
		t.Fatalf("expected ErrSecretTooShort, got %v", err)
	}
	if _, err := NewTokenService(strings.Repeat("x", MinSecretLength)); err != nil {
		t.Fatalf("expected %d-byte secret to be accepted, got %v", MinSecretLength, err)
	}
}

func TestTokenService_IssueVerify(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc := newTestTokenService(t, clock)

	exp := clock.Now().Add(time.Hour)
	token, err := svc.Issue("D100", domain.RoleDoctor, exp)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.Subject != "D100" || claims.Role != domain.RoleDoctor {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.Equal(exp) {
		t.Fatalf("expected expiry %v, got %v", exp, claims.ExpiresAt)
	}
}

func TestTokenService_ExpiresWhenClockAdvances(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc := newTestTokenService(t, clock)

	token, err := svc.Issue("1", domain.RoleAdmin, clock.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if _, err := svc.Verify(token); err != nil {
		t.Fatalf("expected fresh token to verify, got %v", err)
	}

	clock.Advance(time.Hour + time.Second)
	if _, err := svc.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestTokenService_RejectsForeignSecret(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestTokenService(t, clock)
	other, _ := NewTokenService("another-secret-of-enough-length", WithClock(clock.Now))

	token, _ := other.Issue("1", domain.RoleAdmin, clock.Now().Add(time.Hour))
	if _, err := svc.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenService_RejectsMalformedAndEmpty(t *testing.T) {
	svc := newTestTokenService(t, &fakeClock{t: time.Now()})
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.Verify(tok); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestTokenService_RejectsUnknownRoleAndNoExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestTokenService(t, clock)

	unknownRole := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "Nurse",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "x",
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	})
	signed, _ := unknownRole.SignedString([]byte(testSecret))
	if _, err := svc.Verify(signed); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for unknown role, got %v", err)
	}

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             string(domain.RoleAdmin),
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	})
	signed, _ = noExp.SignedString([]byte(testSecret))
	if _, err := svc.Verify(signed); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken without exp, got %v", err)
	}
}

func TestTokenService_IssueValidatesInput(t *testing.T) {
	svc := newTestTokenService(t, &fakeClock{t: time.Now()})
	if _, err := svc.Issue("", domain.RoleAdmin, time.Now().Add(time.Hour)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty subject, got %v", err)
	}
	if _, err := svc.Issue("1", domain.Role("root"), time.Now().Add(time.Hour)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown role, got %v", err)
	}
}

func TestTokenService_IssueIsUniquePerCall(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc := newTestTokenService(t, clock)
	exp := clock.Now().Add(time.Hour)

	a, _ := svc.Issue("D100", domain.RoleDoctor, exp)
	b, _ := svc.Issue("D100", domain.RoleDoctor, exp)
	if a == b {
		t.Fatalf("expected distinct tokens for identical claims")
	}
}
