package ports

import (
	"context"

	"github.com/vitalmed/staff-registry/internal/core/domain"
)

// CreateDoctorInput carries all data needed to add a doctor record.
type CreateDoctorInput struct {
	Name          string
	LicenseNumber string
	Specialty     string
	Email         string
	HospitalID    string
}

// UpdateDoctorInput is a partial update; nil fields are left untouched.
type UpdateDoctorInput struct {
	Name          *string
	LicenseNumber *string
	Specialty     *string
	Email         *string
	HospitalID    *string
}

// ListDoctorsInput carries all parameters for the doctor list endpoint.
type ListDoctorsInput struct {
	Specialty string
	Page      int
	Limit     int
}

// ListDoctorsResult is returned by List.
type ListDoctorsResult struct {
	Items      []*domain.Doctor
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// DoctorCounts aggregates registry size per specialty.
type DoctorCounts struct {
	Total       int64
	BySpecialty map[string]int64
}

// DoctorService defines use-case operations for the doctor directory.
type DoctorService interface {
	Create(ctx context.Context, input CreateDoctorInput) (*domain.Doctor, error)
	Get(ctx context.Context, id string) (*domain.Doctor, error)
	GetByLicense(ctx context.Context, license string) (*domain.Doctor, error)
	List(ctx context.Context, input ListDoctorsInput) (*ListDoctorsResult, error)
	Update(ctx context.Context, id string, input UpdateDoctorInput) (*domain.Doctor, error)
	Delete(ctx context.Context, id string) error
	Counts(ctx context.Context) (*DoctorCounts, error)
}
