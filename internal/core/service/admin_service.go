package service

import (
	"context"
	"errors"

	"github.com/mediciel/clinic-records/internal/core/access"
	"github.com/mediciel/clinic-records/internal/core/domain"
	"github.com/mediciel/clinic-records/internal/core/ports"
)

// AdminService covers admin accounts and doctor provisioning.
type AdminService struct {
	admins  *CredentialStore
	doctors *CredentialStore
	guard   *access.Guard
}

var _ ports.AdminService = (*AdminService)(nil)

func NewAdminService(admins, doctors *CredentialStore, guard *access.Guard) *AdminService {
	return &AdminService{admins: admins, doctors: doctors, guard: guard}
}

// Register creates an admin account. It is unauthenticated so the first
// admin can bootstrap the system.
func (s *AdminService) Register(ctx context.Context, username, password string) (*domain.Principal, error) {
	return s.admins.Register(ctx, username, password, nil)
}

func (s *AdminService) Login(ctx context.Context, username, password string) (*domain.Principal, error) {
	return s.admins.Authenticate(ctx, username, password)
}

func (s *AdminService) Logout(ctx context.Context, token string) error {
	return logout(ctx, s.guard, s.admins, token)
}

func (s *AdminService) Refresh(ctx context.Context, refreshToken string) (*domain.Principal, error) {
	return s.admins.Refresh(ctx, refreshToken)
}

func (s *AdminService) List(ctx context.Context, token string) ([]*domain.Principal, error) {
	if _, err := s.guard.Authorize(token, access.OpListAdmins); err != nil {
		return nil, err
	}
	return s.admins.ListAll(ctx)
}

// RegisterDoctor provisions a doctor account on behalf of an admin.
func (s *AdminService) RegisterDoctor(ctx context.Context, token string, input ports.RegisterDoctorInput) (*domain.Principal, error) {
	if _, err := s.guard.Authorize(token, access.OpRegisterDoctor); err != nil {
		return nil, err
	}
	return s.doctors.Register(ctx, input.Matricule, input.Password, &input.Profile)
}

// logout verifies token, finds the session holding it in store and clears
// it. A token that no longer matches a stored session is already logged out.
func logout(ctx context.Context, guard *access.Guard, store *CredentialStore, token string) error {
	if _, err := guard.RequireRole(token, store.Role()); err != nil {
		return err
	}
	p, err := store.ResolveByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	return store.Logout(ctx, p)
}
