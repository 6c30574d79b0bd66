package ports

import (
	"context"

	"github.com/mediciel/clinic-records/internal/core/domain"
)

// RecordRepository persists medical records. Sensitive fields arrive and
// leave already encrypted. Every per-record method is scoped by doctorID, so
// a record owned by someone else is indistinguishable from a missing one
// (domain.ErrNotFound).
type RecordRepository interface {
	Create(ctx context.Context, r *domain.MedicalRecord) (*domain.MedicalRecord, error)
	FindByID(ctx context.Context, id, doctorID int64) (*domain.MedicalRecord, error)
	Update(ctx context.Context, r *domain.MedicalRecord) (*domain.MedicalRecord, error)
	Delete(ctx context.Context, id, doctorID int64) (bool, error)
	ListByDoctor(ctx context.Context, doctorID int64) ([]*domain.MedicalRecord, error)
	ListAll(ctx context.Context) ([]*domain.MedicalRecord, error)
}
