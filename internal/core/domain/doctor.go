package domain

import (
	"errors"
	"time"
)

var ErrDoctorNotFound = errors.New("doctor not found")
var ErrLicenseTaken = errors.New("license number already registered")
var ErrDoctorEmailTaken = errors.New("email already registered to another doctor")

// Doctor is a directory entry for a practicing physician. LicenseNumber and
// Email are unique across the registry.
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
