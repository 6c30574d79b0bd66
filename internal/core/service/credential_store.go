package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediciel/clinic-records/internal/core/domain"
	"github.com/mediciel/clinic-records/internal/core/ports"
	"github.com/mediciel/clinic-records/pkg/security"
)

const (
	defaultSessionTTL = time.Hour
	defaultRefreshTTL = 24 * time.Hour
	refreshTokenBytes = 32
)

// StoreOptions tunes a CredentialStore. Zero values fall back to defaults.
type StoreOptions struct {
	SessionTTL time.Duration
	RefreshTTL time.Duration
	// Locker serializes session writes across instances; nil disables it.
	Locker ports.SessionLocker
	Clock  func() time.Time
}

// CredentialStore owns credentials and the single live session of one
// principal kind.
type CredentialStore struct {
	role       domain.Role
	repo       ports.PrincipalRepository
	tokens     ports.TokenIssuer
	audit      ports.AuditSink
	locker     ports.SessionLocker
	log        zerolog.Logger
	sessionTTL time.Duration
	refreshTTL time.Duration
	now        func() time.Time

	// dummy digest checked on unknown identities so both failure paths cost the same
	dummySalt   string
	dummyDigest string
}

var _ ports.SessionResolver = (*CredentialStore)(nil)

func NewCredentialStore(
	role domain.Role,
	repo ports.PrincipalRepository,
	tokens ports.TokenIssuer,
	audit ports.AuditSink,
	log zerolog.Logger,
	opts StoreOptions,
) *CredentialStore {
	s := &CredentialStore{
		role:       role,
		repo:       repo,
		tokens:     tokens,
		audit:      auditOrDiscard(audit),
		locker:     opts.Locker,
		log:        log.With().Str("kind", string(role)).Logger(),
		sessionTTL: opts.SessionTTL,
		refreshTTL: opts.RefreshTTL,
		now:        opts.Clock,
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = defaultSessionTTL
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = defaultRefreshTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.dummySalt = "clinic-dummy-salt"
	s.dummyDigest = security.HashPassword("unused", s.dummySalt)
	return s
}

// Role returns the principal kind this store manages.
func (s *CredentialStore) Role() domain.Role { return s.role }

// Register stores a new principal with a fresh salt. profile is ignored for admins.
func (s *CredentialStore) Register(ctx context.Context, identity, password string, profile *domain.DoctorProfile) (*domain.Principal, error) {
	if identity == "" || password == "" {
		return nil, domain.ErrInvalidInput
	}

	salt, err := security.GenerateSalt()
	if err != nil {
		return nil, s.fail(ctx, "register", identity, err)
	}

	now := s.clock()
	p := &domain.Principal{
		Identity:     identity,
		Role:         s.role,
		PasswordHash: security.HashPassword(password, salt),
		Salt:         salt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if s.role == domain.RoleDoctor {
		p.Profile = &domain.DoctorProfile{}
		if profile != nil {
			cp := *profile
			p.Profile = &cp
		}
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			s.audit.Record(ctx, domain.AuditWarning, fmt.Sprintf("%s registration rejected: identity already in use", s.role), "")
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, s.fail(ctx, "register", identity, err)
	}

	s.audit.Record(ctx, domain.AuditInfo, fmt.Sprintf("%s registered", s.role), strconv.FormatInt(created.ID, 10))
	return created, nil
}

// Authenticate checks identity and password and opens a new session,
// replacing any previous one. An unknown identity and a wrong password yield
// the same error.
func (s *CredentialStore) Authenticate(ctx context.Context, identity, password string) (*domain.Principal, error) {
	if identity == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	p, err := s.repo.FindByIdentity(ctx, identity)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, s.fail(ctx, "authenticate", identity, err)
		}
		security.VerifyPassword(password, s.dummySalt, s.dummyDigest)
		s.audit.Record(ctx, domain.AuditWarning, fmt.Sprintf("%s login failed", s.role), "")
		return nil, domain.ErrInvalidCredentials
	}
	if !security.VerifyPassword(password, p.Salt, p.PasswordHash) {
		s.audit.Record(ctx, domain.AuditWarning, fmt.Sprintf("%s login failed", s.role), "")
		return nil, domain.ErrInvalidCredentials
	}

	release, err := s.lock(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.openSession(ctx, p); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, domain.AuditInfo, fmt.Sprintf("%s logged in", s.role), strconv.FormatInt(p.ID, 10))
	return p, nil
}

// Refresh exchanges a live refresh token for a new session pair. The old
// pair stops resolving immediately.
func (s *CredentialStore) Refresh(ctx context.Context, refreshToken string) (*domain.Principal, error) {
	if refreshToken == "" {
		return nil, domain.ErrInvalidToken
	}

	p, err := s.repo.FindByRefreshHash(ctx, hashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, s.fail(ctx, "refresh", "", err)
	}

	now := s.clock()
	if p.Session == nil || !p.Session.RefreshExpiresAt.After(now) {
		if p.Session != nil {
			s.expire(ctx, p)
		}
		return nil, fmt.Errorf("%w: refresh token expired", domain.ErrInvalidToken)
	}

	release, err := s.lock(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.openSession(ctx, p); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, domain.AuditInfo, fmt.Sprintf("%s session refreshed", s.role), strconv.FormatInt(p.ID, 10))
	return p, nil
}

// Logout clears the principal's session if it still holds the token carried
// by p. A missing or already superseded session is a no-op.
func (s *CredentialStore) Logout(ctx context.Context, p *domain.Principal) error {
	if p == nil || p.Session == nil || p.Session.Token == "" {
		return nil
	}

	release, err := s.lock(ctx, p.ID)
	if err != nil {
		return err
	}
	defer release()

	now := s.clock()
	cleared, err := s.repo.ClearSession(ctx, p.ID, p.Session.Token, now)
	if err != nil {
		return s.fail(ctx, "logout", strconv.FormatInt(p.ID, 10), err)
	}
	if cleared {
		p.Session = nil
		p.UpdatedAt = now
		s.audit.Record(ctx, domain.AuditInfo, fmt.Sprintf("%s logged out", s.role), strconv.FormatInt(p.ID, 10))
	}
	return nil
}

// ResolveByToken returns the principal whose stored session holds token and
// has not expired. An expired stored session is cleared on the way out.
func (s *CredentialStore) ResolveByToken(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, domain.ErrSessionNotFound
	}

	p, err := s.repo.FindBySessionToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, s.fail(ctx, "resolve session", "", err)
	}
	if p.Session == nil || p.Session.Token != token {
		return nil, domain.ErrSessionNotFound
	}
	if !p.Session.ActiveAt(s.clock()) {
		s.expire(ctx, p)
		return nil, domain.ErrSessionNotFound
	}
	return p, nil
}

// ListAll returns every principal of this kind ordered by id.
func (s *CredentialStore) ListAll(ctx context.Context) ([]*domain.Principal, error) {
	return s.Find(ctx, ports.PrincipalFilter{})
}

// Find returns principals matching filter ordered by id.
func (s *CredentialStore) Find(ctx context.Context, filter ports.PrincipalFilter) ([]*domain.Principal, error) {
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, s.fail(ctx, "list", "", err)
	}
	return list, nil
}

func (s *CredentialStore) Get(ctx context.Context, id int64) (*domain.Principal, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, s.fail(ctx, "get", strconv.FormatInt(id, 10), err)
	}
	return p, nil
}

// Update replaces a doctor's profile.
func (s *CredentialStore) Update(ctx context.Context, id int64, profile domain.DoctorProfile) (*domain.Principal, error) {
	if s.role != domain.RoleDoctor {
		return nil, domain.ErrUnsupported
	}
	updated, err := s.repo.UpdateProfile(ctx, id, &profile, s.clock())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, s.fail(ctx, "update profile", strconv.FormatInt(id, 10), err)
	}
	s.audit.Record(ctx, domain.AuditInfo, "Doctor profile updated", strconv.FormatInt(id, 10))
	return updated, nil
}

// Delete removes a doctor. It reports false when no such doctor exists.
func (s *CredentialStore) Delete(ctx context.Context, id int64) (bool, error) {
	if s.role != domain.RoleDoctor {
		return false, domain.ErrUnsupported
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, s.fail(ctx, "delete", strconv.FormatInt(id, 10), err)
	}
	if deleted {
		s.audit.Record(ctx, domain.AuditInfo, "Doctor deleted", strconv.FormatInt(id, 10))
	}
	return deleted, nil
}

// openSession issues a token pair for p, persists it in one write and
// mirrors it onto p. The plaintext refresh token only lives on p.
func (s *CredentialStore) openSession(ctx context.Context, p *domain.Principal) error {
	now := s.clock()
	expiresAt := now.Add(s.sessionTTL)

	token, err := s.tokens.Issue(p.Subject(), p.Role, expiresAt)
	if err != nil {
		return s.fail(ctx, "issue token", strconv.FormatInt(p.ID, 10), err)
	}
	refresh, err := newRefreshToken()
	if err != nil {
		return s.fail(ctx, "issue refresh token", strconv.FormatInt(p.ID, 10), err)
	}

	session := &domain.Session{
		Token:            token,
		ExpiresAt:        expiresAt,
		RefreshHash:      hashRefreshToken(refresh),
		RefreshExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.repo.SaveSession(ctx, p.ID, session, now); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidCredentials
		}
		return s.fail(ctx, "save session", strconv.FormatInt(p.ID, 10), err)
	}

	session.RefreshToken = refresh
	p.Session = session
	p.UpdatedAt = now
	return nil
}

// expire drops a stale session. Errors are logged only: the caller is
// already refusing the token.
func (s *CredentialStore) expire(ctx context.Context, p *domain.Principal) {
	if _, err := s.repo.ClearSession(ctx, p.ID, p.Session.Token, s.clock()); err != nil {
		s.log.Warn().Err(err).Int64("id", p.ID).Msg("failed to clear expired session")
		return
	}
	s.audit.Record(ctx, domain.AuditInfo, fmt.Sprintf("%s session expired", s.role), strconv.FormatInt(p.ID, 10))
}

// lock takes the per-principal session lock when a locker is configured.
// A locker outage degrades to unlocked writes; contention does not.
func (s *CredentialStore) lock(ctx context.Context, id int64) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	key := fmt.Sprintf("%s:%d", s.role, id)
	release, ok, err := s.locker.Acquire(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("session lock unavailable, continuing without it")
		return func() {}, nil
	}
	if !ok {
		return nil, domain.ErrSessionBusy
	}
	return release, nil
}

func (s *CredentialStore) fail(ctx context.Context, op, actor string, err error) error {
	return storageFailure(ctx, s.log, s.audit, fmt.Sprintf("%s %s", s.role, op), actor, err)
}

func (s *CredentialStore) clock() time.Time {
	return s.now().UTC()
}

func newRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
