package ports

import (
	"context"
	"time"

	"github.com/mediciel/clinic-records/internal/core/domain"
)

// SessionResolver maps a presented token to the principal whose stored
// session holds it.
type SessionResolver interface {
	ResolveByToken(ctx context.Context, token string) (*domain.Principal, error)
}

// RegisterDoctorInput carries everything needed to provision a doctor.
type RegisterDoctorInput struct {
	Matricule string
	Password  string
	Profile   domain.DoctorProfile
}

// RecordInput is the writable part of a medical record, plaintext.
type RecordInput struct {
	PatientName string
	Date        time.Time
	domain.ClinicalFields
	domain.SensitiveFields
}

// AdminService is the admin-facing use-case surface.
type AdminService interface {
	Register(ctx context.Context, username, password string) (*domain.Principal, error)
	Login(ctx context.Context, username, password string) (*domain.Principal, error)
	Logout(ctx context.Context, token string) error
	Refresh(ctx context.Context, refreshToken string) (*domain.Principal, error)
	List(ctx context.Context, token string) ([]*domain.Principal, error)
	RegisterDoctor(ctx context.Context, token string, input RegisterDoctorInput) (*domain.Principal, error)
}

// DoctorService is the doctor-facing use-case surface.
type DoctorService interface {
	Login(ctx context.Context, matricule, password string) (*domain.Principal, error)
	Logout(ctx context.Context, token string) error
	Refresh(ctx context.Context, refreshToken string) (*domain.Principal, error)
	Get(ctx context.Context, token string, id int64) (*domain.Principal, error)
	Search(ctx context.Context, token string, filter PrincipalFilter) ([]*domain.Principal, error)
	List(ctx context.Context, token string) ([]*domain.Principal, error)
	Update(ctx context.Context, token string, id int64, profile domain.DoctorProfile) (*domain.Principal, error)
	Delete(ctx context.Context, token string, id int64) error
}

// RecordService is the medical-record use-case surface.
type RecordService interface {
	Create(ctx context.Context, token string, input RecordInput) (*domain.MedicalRecord, error)
	Update(ctx context.Context, token string, id int64, input RecordInput) (*domain.MedicalRecord, error)
	Delete(ctx context.Context, token string, id int64) error
	Get(ctx context.Context, token string, id int64) (*domain.MedicalRecord, error)
	ListMine(ctx context.Context, token string) ([]*domain.MedicalRecord, error)
	ListAll(ctx context.Context, token string) ([]*domain.MedicalRecord, error)
}

// AuditService exposes the persisted audit trail to admins.
type AuditService interface {
	Recent(ctx context.Context, token string, limit int) ([]domain.AuditEvent, error)
}
