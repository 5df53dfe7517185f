package registry

import "time"

// User is a registry account as the server reports it. LicenseNumber and
// Specialty are present only for the doctor role.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	LicenseNumber string    `json:"licenseNumber,omitempty"`
	Specialty     string    `json:"specialty,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile is the registration payload. LicenseNumber and Specialty are
// required when Role is doctor and ignored otherwise.
type Profile struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Role          string `json:"role,omitempty"`
	LicenseNumber string `json:"licenseNumber,omitempty"`
	Specialty     string `json:"specialty,omitempty"`
}

// Doctor is a directory entry for a practicing physician.
type Doctor struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	LicenseNumber string    `json:"licenseNumber"`
	Specialty     string    `json:"specialty"`
	Email         string    `json:"email"`
	HospitalID    string    `json:"hospitalId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// DoctorInput creates a directory entry.
type DoctorInput struct {
	Name          string `json:"name"`
	LicenseNumber string `json:"licenseNumber"`
	Specialty     string `json:"specialty"`
	Email         string `json:"email"`
	HospitalID    string `json:"hospitalId,omitempty"`
}

// DoctorUpdate is a partial update; nil fields stay untouched on the server.
type DoctorUpdate struct {
	Name          *string `json:"name,omitempty"`
	LicenseNumber *string `json:"licenseNumber,omitempty"`
	Specialty     *string `json:"specialty,omitempty"`
	Email         *string `json:"email,omitempty"`
	HospitalID    *string `json:"hospitalId,omitempty"`
}

// UserPage is one page of the account listing.
type UserPage struct {
	Items      []User `json:"items"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
}

// DoctorPage is one page of the doctor directory.
type DoctorPage struct {
	Items      []Doctor `json:"items"`
	Total      int64    `json:"total"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	TotalPages int      `json:"totalPages"`
}

// DoctorCounts summarizes the directory.
type DoctorCounts struct {
	Total       int64            `json:"total"`
	BySpecialty map[string]int64 `json:"bySpecialty"`
}

// AuthStatus is the server's view of the calling session.
type AuthStatus struct {
	Authenticated bool     `json:"authenticated"`
	User          *User    `json:"user,omitempty"`
	Permissions   []string `json:"permissions,omitempty"`
}

// PasswordReset acknowledges a reset request. The server answers with the
// same message whether or not the address is registered.
type PasswordReset struct {
	Message    string `json:"message"`
	ResetToken string `json:"resetToken,omitempty"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type registerResponse struct {
	User *User `json:"user"`
}
