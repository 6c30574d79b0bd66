package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediciel/clinic-records/internal/core/access"
	"github.com/mediciel/clinic-records/internal/core/domain"
	"github.com/mediciel/clinic-records/internal/core/ports"
)

// RecordService manages medical records. Owner-scoped calls resolve the
// calling doctor through its stored session; sensitive fields are encrypted
// before they reach the repository and decrypted on the way back.
type RecordService struct {
	repo    ports.RecordRepository
	doctors ports.SessionResolver
	guard   *access.Guard
	cipher  ports.FieldCipher
	audit   ports.AuditSink
	log     zerolog.Logger
	now     func() time.Time
}

var _ ports.RecordService = (*RecordService)(nil)

func NewRecordService(
	repo ports.RecordRepository,
	doctors ports.SessionResolver,
	guard *access.Guard,
	cipher ports.FieldCipher,
	audit ports.AuditSink,
	log zerolog.Logger,
) *RecordService {
	return &RecordService{
		repo:    repo,
		doctors: doctors,
		guard:   guard,
		cipher:  cipher,
		audit:   auditOrDiscard(audit),
		log:     log,
		now:     time.Now,
	}
}

func (s *RecordService) Create(ctx context.Context, token string, input ports.RecordInput) (*domain.MedicalRecord, error) {
	doctor, err := s.guard.RequireSession(ctx, s.doctors, token, access.OpCreateRecord)
	if err != nil {
		return nil, err
	}
	if input.PatientName == "" {
		return nil, domain.ErrInvalidInput
	}

	sealed, err := s.seal(input.SensitiveFields)
	if err != nil {
		return nil, s.fail(ctx, "create record", doctor.ID, err)
	}

	now := s.now().UTC()
	rec := &domain.MedicalRecord{
		DoctorID:        doctor.ID,
		PatientName:     input.PatientName,
		Date:            input.Date,
		ClinicalFields:  input.ClinicalFields,
		SensitiveFields: sealed,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if rec.Date.IsZero() {
		rec.Date = now
	}

	created, err := s.repo.Create(ctx, rec)
	if err != nil {
		return nil, s.fail(ctx, "create record", doctor.ID, err)
	}
	s.audit.Record(ctx, domain.AuditInfo, fmt.Sprintf("medical record %d created", created.ID), actor(doctor.ID))

	created.SensitiveFields = input.SensitiveFields
	return created, nil
}

// Update rewrites the clinical and sensitive fields of a record the caller
// owns. Patient name and owner never change.
func (s *RecordService) Update(ctx context.Context, token string, id int64, input ports.RecordInput) (*domain.MedicalRecord, error) {
	doctor, err := s.guard.RequireSession(ctx, s.doctors, token, access.OpUpdateRecord)
	if err != nil {
		return nil, err
	}

	sealed, err := s.seal(input.SensitiveFields)
	if err != nil {
		return nil, s.fail(ctx, "update record", doctor.ID, err)
	}

	updated, err := s.repo.Update(ctx, &domain.MedicalRecord{
		ID:              id,
		DoctorID:        doctor.ID,
		Date:            input.Date,
		ClinicalFields:  input.ClinicalFields,
		SensitiveFields: sealed,
		UpdatedAt:       s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.audit.Record(ctx, domain.AuditWarning, fmt.Sprintf("medical record %d not found for update", id), actor(doctor.ID))
			return nil, domain.ErrNotFound
		}
		return nil, s.fail(ctx, "update record", doctor.ID, err)
	}
	s.audit.Record(ctx, domain.AuditInfo, fmt.Sprintf("medical record %d updated", id), actor(doctor.ID))

	updated.SensitiveFields = input.SensitiveFields
	return updated, nil
}

func (s *RecordService) Delete(ctx context.Context, token string, id int64) error {
	doctor, err := s.guard.RequireSession(ctx, s.doctors, token, access.OpDeleteRecord)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id, doctor.ID)
	if err != nil {
		return s.fail(ctx, "delete record", doctor.ID, err)
	}
	if !deleted {
		s.audit.Record(ctx, domain.AuditWarning, fmt.Sprintf("medical record %d not found for deletion", id), actor(doctor.ID))
		return domain.ErrNotFound
	}
	s.audit.Record(ctx, domain.AuditInfo, fmt.Sprintf("medical record %d deleted", id), actor(doctor.ID))
	return nil
}

// Get returns one of the caller's own records. Admin tokens pass the role
// gate but hold no doctor session, so they end in domain.ErrSessionNotFound.
func (s *RecordService) Get(ctx context.Context, token string, id int64) (*domain.MedicalRecord, error) {
	doctor, err := s.guard.RequireSession(ctx, s.doctors, token, access.OpReadRecord)
	if err != nil {
		return nil, err
	}
	rec, err := s.repo.FindByID(ctx, id, doctor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, s.fail(ctx, "get record", doctor.ID, err)
	}
	if err := s.open(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *RecordService) ListMine(ctx context.Context, token string) ([]*domain.MedicalRecord, error) {
	doctor, err := s.guard.RequireSession(ctx, s.doctors, token, access.OpListOwnRecords)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListByDoctor(ctx, doctor.ID)
	if err != nil {
		return nil, s.fail(ctx, "list records", doctor.ID, err)
	}
	return s.openAll(ctx, list)
}

// ListAll is the admin bulk path across every doctor.
func (s *RecordService) ListAll(ctx context.Context, token string) ([]*domain.MedicalRecord, error) {
	claims, err := s.guard.Authorize(token, access.OpListAllRecords)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, storageFailure(ctx, s.log, s.audit, "list all records", claims.Subject, err)
	}
	return s.openAll(ctx, list)
}

func (s *RecordService) seal(in domain.SensitiveFields) (domain.SensitiveFields, error) {
	var out domain.SensitiveFields
	pairs := []struct {
		src string
		dst *string
	}{
		{in.PatientPhone, &out.PatientPhone},
		{in.PatientAddress, &out.PatientAddress},
		{in.EmergencyContactPhone, &out.EmergencyContactPhone},
		{in.InsuranceProvider, &out.InsuranceProvider},
		{in.PolicyNumber, &out.PolicyNumber},
	}
	for _, p := range pairs {
		enc, err := s.cipher.Encrypt(p.src)
		if err != nil {
			return domain.SensitiveFields{}, err
		}
		*p.dst = enc
	}
	return out, nil
}

// open decrypts rec's sensitive fields in place.
func (s *RecordService) open(ctx context.Context, rec *domain.MedicalRecord) error {
	fields := []*string{
		&rec.PatientPhone,
		&rec.PatientAddress,
		&rec.EmergencyContactPhone,
		&rec.InsuranceProvider,
		&rec.PolicyNumber,
	}
	for _, f := range fields {
		plain, err := s.cipher.Decrypt(*f)
		if err != nil {
			s.log.Error().Err(err).Int64("record_id", rec.ID).Msg("sensitive field failed to decrypt")
			s.audit.Record(ctx, domain.AuditError, fmt.Sprintf("medical record %d: sensitive field failed to decrypt", rec.ID), actor(rec.DoctorID))
			return domain.ErrDecryption
		}
		*f = plain
	}
	return nil
}

func (s *RecordService) openAll(ctx context.Context, list []*domain.MedicalRecord) ([]*domain.MedicalRecord, error) {
	for _, rec := range list {
		if err := s.open(ctx, rec); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (s *RecordService) fail(ctx context.Context, op string, doctorID int64, err error) error {
	return storageFailure(ctx, s.log, s.audit, op, actor(doctorID), err)
}

func actor(id int64) string {
	return strconv.FormatInt(id, 10)
}
