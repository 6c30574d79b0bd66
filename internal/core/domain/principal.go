package domain

import (
	"strconv"
	"time"
)

// Role is the fixed authorization tag carried by every principal and token.
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleDoctor Role = "Doctor"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleDoctor
}

// Session is the single live token pair owned by a principal.
type Session struct {
	Token            string    `json:"token"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshToken     string    `json:"refresh_token,omitempty"` // only populated on the value returned by login/refresh
	RefreshHash      string    `json:"-"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// ActiveAt reports whether the stored session is still usable at t.
func (s *Session) ActiveAt(t time.Time) bool {
	return s != nil && s.Token != "" && s.ExpiresAt.After(t)
}

// DoctorProfile holds the non-authentication attributes of a doctor.
type DoctorProfile struct {
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

// Principal is an Admin or a Doctor. Identity is the username for admins and
// the matricule for doctors.
type Principal struct {
	ID           int64          `json:"id"`
	Identity     string         `json:"identity"`
	Role         Role           `json:"role"`
	PasswordHash string         `json:"-"`
	Salt         string         `json:"-"`
	Session      *Session       `json:"session,omitempty"`
	Profile      *DoctorProfile `json:"profile,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Subject returns the token subject for p: the numeric id for admins, the
// matricule for doctors.
func (p *Principal) Subject() string {
	if p.Role == RoleAdmin {
		return strconv.FormatInt(p.ID, 10)
	}
	return p.Identity
}

// Claims is the decoded content of a verified token.
type Claims struct {
	Subject   string
	Role      Role
	ExpiresAt time.Time
}
