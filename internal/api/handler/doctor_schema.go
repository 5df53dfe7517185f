package handler

import "github.com/vitalmed/staff-registry/internal/core/domain"

// --- Request types ---

type createDoctorRequest struct {
	Name          string `json:"name"          validate:"required"`
	LicenseNumber string `json:"licenseNumber" validate:"required"`
	Specialty     string `json:"specialty"     validate:"required"`
	Email         string `json:"email"         validate:"required,email"`
	HospitalID    string `json:"hospitalId"    validate:"omitempty"`
}

// updateDoctorRequest is a partial update; absent fields stay untouched.
type updateDoctorRequest struct {
	Name          *string `json:"name"          validate:"omitempty,min=1"`
	LicenseNumber *string `json:"licenseNumber" validate:"omitempty,min=1"`
	Specialty     *string `json:"specialty"     validate:"omitempty,min=1"`
	Email         *string `json:"email"         validate:"omitempty,email"`
	HospitalID    *string `json:"hospitalId"    validate:"omitempty"`
}

// --- Response types ---

type listDoctorsResponse struct {
	Items      []*domain.Doctor `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

type doctorCountsResponse struct {
	Total       int64            `json:"total"`
	BySpecialty map[string]int64 `json:"bySpecialty"`
}
