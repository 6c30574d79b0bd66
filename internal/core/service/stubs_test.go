package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediciel/clinic-records/internal/core/access"
	"github.com/mediciel/clinic-records/internal/core/domain"
	"github.com/mediciel/clinic-records/internal/core/ports"
	"github.com/mediciel/clinic-records/pkg/security"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

var errStorage = errors.New("connection reset by peer")

type stubPrincipalRepo struct {
	mu      sync.Mutex
	byID    map[int64]*domain.Principal
	nextID  int64
	failAll error
}

func newStubPrincipalRepo() *stubPrincipalRepo {
	return &stubPrincipalRepo{byID: make(map[int64]*domain.Principal)}
}

func clonePrincipal(p *domain.Principal) *domain.Principal {
	if p == nil {
		return nil
	}
	c := *p
	if p.Session != nil {
		s := *p.Session
		c.Session = &s
	}
	if p.Profile != nil {
		pr := *p.Profile
		c.Profile = &pr
	}
	return &c
}

func (r *stubPrincipalRepo) find(match func(*domain.Principal) bool) (*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	for _, p := range r.byID {
		if match(p) {
			return clonePrincipal(p), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubPrincipalRepo) Create(_ context.Context, p *domain.Principal) (*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	for _, existing := range r.byID {
		if existing.Identity == p.Identity {
			return nil, domain.ErrDuplicateIdentity
		}
	}
	r.nextID++
	c := clonePrincipal(p)
	c.ID = r.nextID
	r.byID[c.ID] = c
	return clonePrincipal(c), nil
}

func (r *stubPrincipalRepo) FindByIdentity(_ context.Context, identity string) (*domain.Principal, error) {
	return r.find(func(p *domain.Principal) bool { return p.Identity == identity })
}

func (r *stubPrincipalRepo) FindByID(_ context.Context, id int64) (*domain.Principal, error) {
	return r.find(func(p *domain.Principal) bool { return p.ID == id })
}

func (r *stubPrincipalRepo) FindBySessionToken(_ context.Context, token string) (*domain.Principal, error) {
	return r.find(func(p *domain.Principal) bool { return p.Session != nil && p.Session.Token == token })
}

func (r *stubPrincipalRepo) FindByRefreshHash(_ context.Context, hash string) (*domain.Principal, error) {
	return r.find(func(p *domain.Principal) bool { return p.Session != nil && p.Session.RefreshHash == hash })
}

func (r *stubPrincipalRepo) List(_ context.Context, f ports.PrincipalFilter) ([]*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	var out []*domain.Principal
	for _, p := range r.byID {
		if f.Specialty != "" && (p.Profile == nil || p.Profile.Specialty != f.Specialty) {
			continue
		}
		if f.Department != "" && (p.Profile == nil || p.Profile.Department != f.Department) {
			continue
		}
		out = append(out, clonePrincipal(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubPrincipalRepo) SaveSession(_ context.Context, id int64, s *domain.Session, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return r.failAll
	}
	p, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	stored := *s
	stored.RefreshToken = ""
	p.Session = &stored
	p.UpdatedAt = at
	return nil
}

func (r *stubPrincipalRepo) ClearSession(_ context.Context, id int64, token string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return false, r.failAll
	}
	p, ok := r.byID[id]
	if !ok || p.Session == nil || p.Session.Token != token {
		return false, nil
	}
	p.Session = nil
	p.UpdatedAt = at
	return true, nil
}

func (r *stubPrincipalRepo) UpdateProfile(_ context.Context, id int64, profile *domain.DoctorProfile, at time.Time) (*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	pr := *profile
	p.Profile = &pr
	p.UpdatedAt = at
	return clonePrincipal(p), nil
}

func (r *stubPrincipalRepo) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return false, r.failAll
	}
	if _, ok := r.byID[id]; !ok {
		return false, nil
	}
	delete(r.byID, id)
	return true, nil
}

type stubRecordRepo struct {
	byID    map[int64]*domain.MedicalRecord
	nextID  int64
	failAll error
}

func newStubRecordRepo() *stubRecordRepo {
	return &stubRecordRepo{byID: make(map[int64]*domain.MedicalRecord)}
}

func cloneRecord(r *domain.MedicalRecord) *domain.MedicalRecord {
	c := *r
	return &c
}

func (r *stubRecordRepo) Create(_ context.Context, rec *domain.MedicalRecord) (*domain.MedicalRecord, error) {
	if r.failAll != nil {
		return nil, r.failAll
	}
	r.nextID++
	c := cloneRecord(rec)
	c.ID = r.nextID
	r.byID[c.ID] = c
	return cloneRecord(c), nil
}

func (r *stubRecordRepo) FindByID(_ context.Context, id, doctorID int64) (*domain.MedicalRecord, error) {
	if r.failAll != nil {
		return nil, r.failAll
	}
	rec, ok := r.byID[id]
	if !ok || rec.DoctorID != doctorID {
		return nil, domain.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (r *stubRecordRepo) Update(_ context.Context, rec *domain.MedicalRecord) (*domain.MedicalRecord, error) {
	if r.failAll != nil {
		return nil, r.failAll
	}
	stored, ok := r.byID[rec.ID]
	if !ok || stored.DoctorID != rec.DoctorID {
		return nil, domain.ErrNotFound
	}
	if !rec.Date.IsZero() {
		stored.Date = rec.Date
	}
	stored.ClinicalFields = rec.ClinicalFields
	stored.SensitiveFields = rec.SensitiveFields
	stored.UpdatedAt = rec.UpdatedAt
	return cloneRecord(stored), nil
}

func (r *stubRecordRepo) Delete(_ context.Context, id, doctorID int64) (bool, error) {
	if r.failAll != nil {
		return false, r.failAll
	}
	rec, ok := r.byID[id]
	if !ok || rec.DoctorID != doctorID {
		return false, nil
	}
	delete(r.byID, id)
	return true, nil
}

func (r *stubRecordRepo) ListByDoctor(_ context.Context, doctorID int64) ([]*domain.MedicalRecord, error) {
	if r.failAll != nil {
		return nil, r.failAll
	}
	var out []*domain.MedicalRecord
	for _, rec := range r.byID {
		if rec.DoctorID == doctorID {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubRecordRepo) ListAll(_ context.Context) ([]*domain.MedicalRecord, error) {
	if r.failAll != nil {
		return nil, r.failAll
	}
	var out []*domain.MedicalRecord
	for _, rec := range r.byID {
		out = append(out, cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type auditEntry struct {
	level   domain.AuditLevel
	message string
	actor   string
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *recordingAudit) Record(_ context.Context, level domain.AuditLevel, message, actor string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{level, message, actor})
}

func (a *recordingAudit) count(level domain.AuditLevel) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, e := range a.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

type stubLocker struct {
	held map[string]bool
	err  error
}

func (l *stubLocker) Acquire(_ context.Context, key string) (func(), bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func() { delete(l.held, key) }, true, nil
}

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// ---------------------------------------------------------------------------
// Fixture: both stores and all three services over in-memory repos.
// ---------------------------------------------------------------------------

type fixture struct {
	clock      *testClock
	tokens     *security.TokenService
	audit      *recordingAudit
	adminRepo  *stubPrincipalRepo
	doctorRepo *stubPrincipalRepo
	recordRepo *stubRecordRepo
	admins     *CredentialStore
	doctors    *CredentialStore
	guard      *access.Guard
	adminSvc   *AdminService
	doctorSvc  *DoctorService
	recordSvc  *RecordService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &testClock{t: time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)}
	tokens, err := security.NewTokenService("fixture-secret-0123456789", security.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	cipher, err := security.NewFieldCipher("fixture-passphrase")
	if err != nil {
		t.Fatalf("NewFieldCipher: %v", err)
	}

	f := &fixture{
		clock:      clock,
		tokens:     tokens,
		audit:      &recordingAudit{},
		adminRepo:  newStubPrincipalRepo(),
		doctorRepo: newStubPrincipalRepo(),
		recordRepo: newStubRecordRepo(),
	}
	opts := StoreOptions{Clock: clock.Now}
	f.admins = NewCredentialStore(domain.RoleAdmin, f.adminRepo, tokens, f.audit, zerolog.Nop(), opts)
	f.doctors = NewCredentialStore(domain.RoleDoctor, f.doctorRepo, tokens, f.audit, zerolog.Nop(), opts)
	f.guard = access.NewGuard(tokens)
	f.adminSvc = NewAdminService(f.admins, f.doctors, f.guard)
	f.doctorSvc = NewDoctorService(f.doctors, f.admins, f.guard)
	f.recordSvc = NewRecordService(f.recordRepo, f.doctors, f.guard, cipher, f.audit, zerolog.Nop())
	f.recordSvc.now = clock.Now
	return f
}

// adminToken registers and logs in an admin, returning its session token.
func (f *fixture) adminToken(t *testing.T, username string) string {
	t.Helper()
	if _, err := f.adminSvc.Register(context.Background(), username, "admin-pw"); err != nil {
		t.Fatalf("register admin %s: %v", username, err)
	}
	p, err := f.adminSvc.Login(context.Background(), username, "admin-pw")
	if err != nil {
		t.Fatalf("login admin %s: %v", username, err)
	}
	return p.Session.Token
}

// doctorToken provisions a doctor through adminTok and logs it in.
func (f *fixture) doctorToken(t *testing.T, adminTok, matricule string) (string, *domain.Principal) {
	t.Helper()
	_, err := f.adminSvc.RegisterDoctor(context.Background(), adminTok, ports.RegisterDoctorInput{
		Matricule: matricule,
		Password:  "doctor-pw",
		Profile:   domain.DoctorProfile{Specialty: "Cardiology", Department: "North"},
	})
	if err != nil {
		t.Fatalf("register doctor %s: %v", matricule, err)
	}
	p, err := f.doctorSvc.Login(context.Background(), matricule, "doctor-pw")
	if err != nil {
		t.Fatalf("login doctor %s: %v", matricule, err)
	}
	return p.Session.Token, p
}
