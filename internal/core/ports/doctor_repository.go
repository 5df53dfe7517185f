package ports

import (
	"context"

	"github.com/vitalmed/staff-registry/internal/core/domain"
)

// ListDoctorsFilter carries all query parameters for listing doctors.
type ListDoctorsFilter struct {
	Specialty string // optional: exact match, case-insensitive
	Page      int    // 1-based
	Limit     int    // max rows per page (capped by the service)
}

// DoctorRepository defines persistence operations for doctor records.
type DoctorRepository interface {
	Create(ctx context.Context, d *domain.Doctor) (*domain.Doctor, error)
	FindByID(ctx context.Context, id string) (*domain.Doctor, error)
	FindByLicense(ctx context.Context, license string) (*domain.Doctor, error)
	FindByEmail(ctx context.Context, email string) (*domain.Doctor, error)
	// List returns a page of doctors matching filter and the total count.
	List(ctx context.Context, filter ListDoctorsFilter) ([]*domain.Doctor, int64, error)
	Update(ctx context.Context, d *domain.Doctor) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	CountBySpecialty(ctx context.Context) (map[string]int64, error)
}
