package domain

import "time"

// SensitiveFields are the patient identifiers that are encrypted at rest.
type SensitiveFields struct {
	PatientPhone          string `json:"patient_phone"`
	PatientAddress        string `json:"patient_address"`
	EmergencyContactPhone string `json:"emergency_contact_phone"`
	InsuranceProvider     string `json:"insurance_provider"`
	PolicyNumber          string `json:"policy_number"`
}

// ClinicalFields are stored in plaintext.
type ClinicalFields struct {
	Diagnosis            string    `json:"diagnosis"`
	Treatment            string    `json:"treatment"`
	PatientDateOfBirth   time.Time `json:"patient_date_of_birth"`
	EmergencyContactName string    `json:"emergency_contact_name"`
	Allergies            string    `json:"allergies"`
	Medications          string    `json:"medications"`
	PreviousConditions   string    `json:"previous_conditions"`
	Notes                string    `json:"notes"`
}

// MedicalRecord is owned by exactly one doctor for its whole lifetime.
type MedicalRecord struct {
	ID          int64     `json:"id"`
	DoctorID    int64     `json:"doctor_id"`
	PatientName string    `json:"patient_name"`
	Date        time.Time `json:"date"`
	ClinicalFields
	SensitiveFields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnedBy reports whether doctorID owns the record.
func (r *MedicalRecord) OwnedBy(doctorID int64) bool {
	return r != nil && r.DoctorID == doctorID
}
