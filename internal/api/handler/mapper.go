package handler

import (
	"strconv"

	"github.com/mediciel/clinic-records/internal/core/domain"
	"github.com/mediciel/clinic-records/internal/core/ports"
)

// --- Request → Service input ---

func toProfile(p doctorProfileRequest) domain.DoctorProfile {
	return domain.DoctorProfile{
		Phone:             p.Phone,
		DateOfBirth:       p.DateOfBirth.UTC(),
		Specialty:         p.Specialty,
		Department:        p.Department,
		Email:             p.Email,
		Address:           p.Address,
		Gender:            p.Gender,
		Qualifications:    p.Qualifications,
		YearsOfExperience: p.YearsOfExperience,
	}
}

func toRegisterDoctorInput(req registerDoctorRequest) ports.RegisterDoctorInput {
	return ports.RegisterDoctorInput{
		Matricule: req.Matricule,
		Password:  req.Password,
		Profile:   toProfile(req.doctorProfileRequest),
	}
}

func toRecordInput(req recordRequest) ports.RecordInput {
	return ports.RecordInput{
		PatientName: req.PatientName,
		Date:        req.Date.UTC(),
		ClinicalFields: domain.ClinicalFields{
			Diagnosis:            req.Diagnosis,
			Treatment:            req.Treatment,
			PatientDateOfBirth:   req.PatientDateOfBirth.UTC(),
			EmergencyContactName: req.EmergencyContactName,
			Allergies:            req.Allergies,
			Medications:          req.Medications,
			PreviousConditions:   req.PreviousConditions,
			Notes:                req.Notes,
		},
		SensitiveFields: domain.SensitiveFields{
			PatientPhone:          req.PatientPhone,
			PatientAddress:        req.PatientAddress,
			EmergencyContactPhone: req.EmergencyContactPhone,
			InsuranceProvider:     req.InsuranceProvider,
			PolicyNumber:          req.PolicyNumber,
		},
	}
}

// --- Service result → HTTP response ---

func toPrincipalResponse(p *domain.Principal) principalResponse {
	resp := principalResponse{
		ID:        p.ID,
		Identity:  p.Identity,
		Role:      string(p.Role),
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
	if p.Profile != nil {
		resp.Profile = &profileResponse{
			Phone:             p.Profile.Phone,
			DateOfBirth:       p.Profile.DateOfBirth.UTC(),
			Specialty:         p.Profile.Specialty,
			Department:        p.Profile.Department,
			Email:             p.Profile.Email,
			Address:           p.Profile.Address,
			Gender:            p.Profile.Gender,
			Qualifications:    p.Profile.Qualifications,
			YearsOfExperience: p.Profile.YearsOfExperience,
		}
	}
	return resp
}

// toSessionResponse expects p.Session to carry the plaintext refresh token,
// which only login and refresh results do.
func toSessionResponse(p *domain.Principal) sessionResponse {
	resp := sessionResponse{Principal: toPrincipalResponse(p)}
	if p.Session != nil {
		resp.Token = p.Session.Token
		resp.ExpiresAt = p.Session.ExpiresAt.UTC()
		resp.RefreshToken = p.Session.RefreshToken
		resp.RefreshExpiresAt = p.Session.RefreshExpiresAt.UTC()
	}
	return resp
}

func toListPrincipalsResponse(items []*domain.Principal) listPrincipalsResponse {
	data := make([]principalResponse, len(items))
	for i, p := range items {
		data[i] = toPrincipalResponse(p)
	}
	return listPrincipalsResponse{Data: data, Total: len(data)}
}

func toRecordResponse(r *domain.MedicalRecord) recordResponse {
	return recordResponse{
		ID:                    r.ID,
		DoctorID:              r.DoctorID,
		PatientName:           r.PatientName,
		Date:                  r.Date.UTC(),
		Diagnosis:             r.Diagnosis,
		Treatment:             r.Treatment,
		PatientDateOfBirth:    r.PatientDateOfBirth.UTC(),
		EmergencyContactName:  r.EmergencyContactName,
		Allergies:             r.Allergies,
		Medications:           r.Medications,
		PreviousConditions:    r.PreviousConditions,
		Notes:                 r.Notes,
		PatientPhone:          r.PatientPhone,
		PatientAddress:        r.PatientAddress,
		EmergencyContactPhone: r.EmergencyContactPhone,
		InsuranceProvider:     r.InsuranceProvider,
		PolicyNumber:          r.PolicyNumber,
		CreatedAt:             r.CreatedAt.UTC(),
		UpdatedAt:             r.UpdatedAt.UTC(),
		Links:                 recordLinks{Self: "/records/" + strconv.FormatInt(r.ID, 10)},
	}
}

func toListRecordsResponse(items []*domain.MedicalRecord) listRecordsResponse {
	data := make([]recordResponse, len(items))
	for i, r := range items {
		data[i] = toRecordResponse(r)
	}
	return listRecordsResponse{Data: data, Total: len(data)}
}

func toListAuditResponse(events []domain.AuditEvent) listAuditResponse {
	data := make([]auditEventResponse, len(events))
	for i, e := range events {
		data[i] = auditEventResponse{
			ID:        e.ID,
			Level:     string(e.Level),
			Message:   e.Message,
			ActorID:   e.ActorID,
			Timestamp: e.Timestamp.UTC(),
		}
	}
	return listAuditResponse{Data: data, Total: len(data)}
}
