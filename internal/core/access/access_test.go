package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mediciel/clinic-records/internal/core/domain"
)

type stubVerifier struct {
	claims map[string]*domain.Claims
}

func (v stubVerifier) Verify(token string) (*domain.Claims, error) {
	c, ok := v.claims[token]
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	return c, nil
}

type stubResolver struct {
	sessions map[string]*domain.Principal
}

func (r stubResolver) ResolveByToken(_ context.Context, token string) (*domain.Principal, error) {
	p, ok := r.sessions[token]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return p, nil
}

func newTestGuard() *Guard {
	exp := time.Now().Add(time.Hour)
	return NewGuard(stubVerifier{claims: map[string]*domain.Claims{
		"admin-token":  {Subject: "1", Role: domain.RoleAdmin, ExpiresAt: exp},
		"doctor-token": {Subject: "D100", Role: domain.RoleDoctor, ExpiresAt: exp},
		"stolen-token": {Subject: "D200", Role: domain.RoleDoctor, ExpiresAt: exp},
	}})
}

func TestAllowed_Table(t *testing.T) {
	cases := []struct {
		op     Operation
		admin  bool
		doctor bool
	}{
		{OpListAdmins, true, false},
		{OpRegisterDoctor, true, false},
		{OpListDoctors, true, false},
		{OpDeleteDoctor, true, false},
		{OpListAllRecords, true, false},
		{OpListAudit, true, false},
		{OpViewDoctor, true, true},
		{OpSearchDoctors, true, true},
		{OpUpdateDoctor, true, true},
		{OpCreateRecord, false, true},
		{OpUpdateRecord, false, true},
		{OpDeleteRecord, false, true},
		{OpReadRecord, true, true},
		{OpListOwnRecords, true, true},
	}
	for _, tc := range cases {
		if got := Allowed(domain.RoleAdmin, tc.op); got != tc.admin {
			t.Fatalf("%s admin: expected %v, got %v", tc.op, tc.admin, got)
		}
		if got := Allowed(domain.RoleDoctor, tc.op); got != tc.doctor {
			t.Fatalf("%s doctor: expected %v, got %v", tc.op, tc.doctor, got)
		}
	}
	if Allowed(domain.RoleAdmin, Operation("unknown")) {
		t.Fatalf("unknown operation must be denied")
	}
}

func TestGuard_RequireRole(t *testing.T) {
	g := newTestGuard()

	claims, err := g.RequireRole("admin-token", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("RequireRole returned error: %v", err)
	}
	if claims.Subject != "1" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}

	if _, err := g.RequireRole("doctor-token", domain.RoleAdmin); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if _, err := g.RequireRole("garbage", domain.RoleAdmin, domain.RoleDoctor); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestGuard_Authorize_UnknownOperation(t *testing.T) {
	g := newTestGuard()
	if _, err := g.Authorize("admin-token", Operation("records.export")); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestGuard_RequireSession(t *testing.T) {
	g := newTestGuard()
	doctor := &domain.Principal{ID: 7, Identity: "D100", Role: domain.RoleDoctor}
	resolver := stubResolver{sessions: map[string]*domain.Principal{
		"doctor-token": doctor,
		// verifies as D200 but the store holds it for D100
		"stolen-token": doctor,
	}}

	got, err := g.RequireSession(context.Background(), resolver, "doctor-token", OpCreateRecord)
	if err != nil {
		t.Fatalf("RequireSession returned error: %v", err)
	}
	if got.ID != 7 {
		t.Fatalf("unexpected principal %+v", got)
	}

	if _, err := g.RequireSession(context.Background(), resolver, "stolen-token", OpCreateRecord); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on subject mismatch, got %v", err)
	}
}

func TestGuard_RequireSession_AdminOnDoctorStore(t *testing.T) {
	g := newTestGuard()
	resolver := stubResolver{sessions: map[string]*domain.Principal{}}

	if _, err := g.RequireSession(context.Background(), resolver, "admin-token", OpReadRecord); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for admin per-record read, got %v", err)
	}
	if _, err := g.RequireSession(context.Background(), resolver, "admin-token", OpCreateRecord); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for admin record creation, got %v", err)
	}
}
