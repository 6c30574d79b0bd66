package ports

import (
	"context"
	"time"

	"github.com/mediciel/clinic-records/internal/core/domain"
)

// PrincipalFilter narrows List. Empty fields match everything.
type PrincipalFilter struct {
	Specialty  string // doctors only
	Department string // doctors only
}

// PrincipalRepository persists one principal kind. Implementations map a
// missing row to domain.ErrNotFound and a unique-index clash to
// domain.ErrDuplicateIdentity; every other failure is returned as-is for the
// caller to log.
type PrincipalRepository interface {
	// Create assigns the next sequential id (starting at 1) and stores p.
	Create(ctx context.Context, p *domain.Principal) (*domain.Principal, error)
	FindByIdentity(ctx context.Context, identity string) (*domain.Principal, error)
	FindByID(ctx context.Context, id int64) (*domain.Principal, error)
	FindBySessionToken(ctx context.Context, token string) (*domain.Principal, error)
	FindByRefreshHash(ctx context.Context, hash string) (*domain.Principal, error)
	List(ctx context.Context, filter PrincipalFilter) ([]*domain.Principal, error)

	// SaveSession replaces the whole session of principal id in one write.
	SaveSession(ctx context.Context, id int64, session *domain.Session, modifiedAt time.Time) error
	// ClearSession removes the session only while it still holds token.
	// It reports false when the stored session was already replaced or gone.
	ClearSession(ctx context.Context, id int64, token string, modifiedAt time.Time) (bool, error)

	UpdateProfile(ctx context.Context, id int64, profile *domain.DoctorProfile, modifiedAt time.Time) (*domain.Principal, error)
	Delete(ctx context.Context, id int64) (bool, error)
}
