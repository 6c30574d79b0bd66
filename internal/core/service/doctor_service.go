package service

import (
	"context"

	"github.com/mediciel/clinic-records/internal/core/access"
	"github.com/mediciel/clinic-records/internal/core/domain"
	"github.com/mediciel/clinic-records/internal/core/ports"
)

// DoctorService covers doctor sessions and the doctor directory.
// Directory mutations require a live stored session for admins too, so a
// logged-out admin token cannot delete or rewrite doctors.
type DoctorService struct {
	doctors *CredentialStore
	admins  *CredentialStore
	guard   *access.Guard
}

var _ ports.DoctorService = (*DoctorService)(nil)

func NewDoctorService(doctors, admins *CredentialStore, guard *access.Guard) *DoctorService {
	return &DoctorService{doctors: doctors, admins: admins, guard: guard}
}

func (s *DoctorService) Login(ctx context.Context, matricule, password string) (*domain.Principal, error) {
	return s.doctors.Authenticate(ctx, matricule, password)
}

func (s *DoctorService) Logout(ctx context.Context, token string) error {
	return logout(ctx, s.guard, s.doctors, token)
}

func (s *DoctorService) Refresh(ctx context.Context, refreshToken string) (*domain.Principal, error) {
	return s.doctors.Refresh(ctx, refreshToken)
}

func (s *DoctorService) Get(ctx context.Context, token string, id int64) (*domain.Principal, error) {
	if _, err := s.guard.Authorize(token, access.OpViewDoctor); err != nil {
		return nil, err
	}
	return s.doctors.Get(ctx, id)
}

// Search filters doctors by specialty and/or department.
func (s *DoctorService) Search(ctx context.Context, token string, filter ports.PrincipalFilter) ([]*domain.Principal, error) {
	if _, err := s.guard.Authorize(token, access.OpSearchDoctors); err != nil {
		return nil, err
	}
	return s.doctors.Find(ctx, filter)
}

func (s *DoctorService) List(ctx context.Context, token string) ([]*domain.Principal, error) {
	if _, err := s.guard.Authorize(token, access.OpListDoctors); err != nil {
		return nil, err
	}
	return s.doctors.ListAll(ctx)
}

// Update replaces a doctor's profile. Admins may update anyone; a doctor
// only itself, proven by a live session.
func (s *DoctorService) Update(ctx context.Context, token string, id int64, profile domain.DoctorProfile) (*domain.Principal, error) {
	claims, err := s.guard.Authorize(token, access.OpUpdateDoctor)
	if err != nil {
		return nil, err
	}
	switch claims.Role {
	case domain.RoleDoctor:
		self, err := s.guard.RequireSession(ctx, s.doctors, token, access.OpUpdateDoctor)
		if err != nil {
			return nil, err
		}
		if self.ID != id {
			return nil, domain.ErrAccessDenied
		}
	default:
		if _, err := s.guard.RequireSession(ctx, s.admins, token, access.OpUpdateDoctor); err != nil {
			return nil, err
		}
	}
	return s.doctors.Update(ctx, id, profile)
}

func (s *DoctorService) Delete(ctx context.Context, token string, id int64) error {
	if _, err := s.guard.RequireSession(ctx, s.admins, token, access.OpDeleteDoctor); err != nil {
		return err
	}
	deleted, err := s.doctors.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}
