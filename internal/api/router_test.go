package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediciel/clinic-records/internal/core/domain"
	"github.com/mediciel/clinic-records/pkg/security"
)

// The router registers echoprometheus collectors on the default registry,
// so it is built once for the whole file.
func TestRouter(t *testing.T) {
	tokens, err := security.NewTokenService("router-test-secret-0123")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	e := NewRouter(Dependencies{Tokens: tokens, Log: zerolog.Nop()})

	doctorToken, _ := tokens.Issue("D100", domain.RoleDoctor, time.Now().Add(time.Hour))

	do := func(method, target, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	t.Run("liveness", func(t *testing.T) {
		if rec := do(http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("readiness without dependencies", func(t *testing.T) {
		if rec := do(http.MethodGet, "/health/ready", ""); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("privileged route without token", func(t *testing.T) {
		rec := do(http.MethodGet, "/records", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
			t.Fatalf("expected error envelope, got %s", rec.Body.String())
		}
	})

	t.Run("doctor on admin-only route", func(t *testing.T) {
		if rec := do(http.MethodGet, "/medicalrecords", doctorToken); rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("doctor registering a doctor", func(t *testing.T) {
		if rec := do(http.MethodPost, "/doctor/register", doctorToken); rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("doctor reading the audit trail", func(t *testing.T) {
		if rec := do(http.MethodGet, "/audit", doctorToken); rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		if rec := do(http.MethodGet, "/metrics", ""); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}
