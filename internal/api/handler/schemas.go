package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type adminCredentialsRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type doctorCredentialsRequest struct {
	Matricule string `json:"matricule" validate:"required,max=64"`
	Password  string `json:"password"  validate:"required,max=128"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type doctorProfileRequest struct {
	Phone             string    `json:"phone"               validate:"max=32"`
	DateOfBirth       time.Time `json:"date_of_birth"`
	Specialty         string    `json:"specialty"           validate:"required,max=128"`
	Department        string    `json:"department"          validate:"required,max=128"`
	Email             string    `json:"email"               validate:"omitempty,email"`
	Address           string    `json:"address"             validate:"max=256"`
	Gender            string    `json:"gender"              validate:"max=32"`
	Qualifications    string    `json:"qualifications"      validate:"max=512"`
	YearsOfExperience int       `json:"years_of_experience" validate:"gte=0,lte=80"`
}

type registerDoctorRequest struct {
	Matricule string `json:"matricule" validate:"required,max=64"`
	Password  string `json:"password"  validate:"required,min=8,max=128"`
	doctorProfileRequest
}

type recordRequest struct {
	PatientName           string    `json:"patient_name"            validate:"max=256"`
	Date                  time.Time `json:"date"`
	Diagnosis             string    `json:"diagnosis"`
	Treatment             string    `json:"treatment"`
	PatientDateOfBirth    time.Time `json:"patient_date_of_birth"`
	EmergencyContactName  string    `json:"emergency_contact_name"`
	Allergies             string    `json:"allergies"`
	Medications           string    `json:"medications"`
	PreviousConditions    string    `json:"previous_conditions"`
	Notes                 string    `json:"notes"`
	PatientPhone          string    `json:"patient_phone"           validate:"max=32"`
	PatientAddress        string    `json:"patient_address"         validate:"max=512"`
	EmergencyContactPhone string    `json:"emergency_contact_phone" validate:"max=32"`
	InsuranceProvider     string    `json:"insurance_provider"      validate:"max=256"`
	PolicyNumber          string    `json:"policy_number"           validate:"max=128"`
}

// --- Response types ---
// These stay separate from domain types so secrets such as password digests
// and stored refresh hashes can never leak through a JSON tag change.

type profileResponse struct {
	Phone             string    `json:"phone"`
	DateOfBirth       time.Time `json:"date_of_birth"`
	Specialty         string    `json:"specialty"`
	Department        string    `json:"department"`
	Email             string    `json:"email"`
	Address           string    `json:"address"`
	Gender            string    `json:"gender"`
	Qualifications    string    `json:"qualifications"`
	YearsOfExperience int       `json:"years_of_experience"`
}

type principalResponse struct {
	ID        int64            `json:"id"`
	Identity  string           `json:"identity"`
	Role      string           `json:"role"`
	Profile   *profileResponse `json:"profile,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type sessionResponse struct {
	Token            string            `json:"token"`
	ExpiresAt        time.Time         `json:"expires_at"`
	RefreshToken     string            `json:"refresh_token"`
	RefreshExpiresAt time.Time         `json:"refresh_expires_at"`
	Principal        principalResponse `json:"principal"`
}

type listPrincipalsResponse struct {
	Data  []principalResponse `json:"data"`
	Total int                 `json:"total"`
}

type recordLinks struct {
	Self string `json:"self"`
}

type recordResponse struct {
	ID                    int64       `json:"id"`
	DoctorID              int64       `json:"doctor_id"`
	PatientName           string      `json:"patient_name"`
	Date                  time.Time   `json:"date"`
	Diagnosis             string      `json:"diagnosis"`
	Treatment             string      `json:"treatment"`
	PatientDateOfBirth    time.Time   `json:"patient_date_of_birth"`
	EmergencyContactName  string      `json:"emergency_contact_name"`
	Allergies             string      `json:"allergies"`
	Medications           string      `json:"medications"`
	PreviousConditions    string      `json:"previous_conditions"`
	Notes                 string      `json:"notes"`
	PatientPhone          string      `json:"patient_phone"`
	PatientAddress        string      `json:"patient_address"`
	EmergencyContactPhone string      `json:"emergency_contact_phone"`
	InsuranceProvider     string      `json:"insurance_provider"`
	PolicyNumber          string      `json:"policy_number"`
	CreatedAt             time.Time   `json:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at"`
	Links                 recordLinks `json:"_links"`
}

type listRecordsResponse struct {
	Data  []recordResponse `json:"data"`
	Total int              `json:"total"`
}

type auditEventResponse struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	ActorID   string    `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type listAuditResponse struct {
	Data  []auditEventResponse `json:"data"`
	Total int                  `json:"total"`
}
