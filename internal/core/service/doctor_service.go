package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/vitalmed/staff-registry/internal/core/domain"
	"github.com/vitalmed/staff-registry/internal/core/ports"
)

// DoctorService implements the doctor directory use cases.
type DoctorService struct {
	repo   ports.DoctorRepository
	logger zerolog.Logger
}

func NewDoctorService(repo ports.DoctorRepository, logger zerolog.Logger) *DoctorService {
	return &DoctorService{repo: repo, logger: logger}
}

func (s *DoctorService) Create(ctx context.Context, input ports.CreateDoctorInput) (*domain.Doctor, error) {
	if err := s.checkLicenseFree(ctx, input.LicenseNumber, ""); err != nil {
		return nil, err
	}
	if err := s.checkEmailFree(ctx, input.Email, ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doctor := &domain.Doctor{
		Name:          input.Name,
		LicenseNumber: input.LicenseNumber,
		Specialty:     input.Specialty,
		Email:         input.Email,
		HospitalID:    input.HospitalID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.repo.Create(ctx, doctor)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("doctor_id", created.ID).Str("specialty", created.Specialty).Msg("doctor registered")
	return created, nil
}

func (s *DoctorService) Get(ctx context.Context, id string) (*domain.Doctor, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *DoctorService) GetByLicense(ctx context.Context, license string) (*domain.Doctor, error) {
	return s.repo.FindByLicense(ctx, license)
}

func (s *DoctorService) List(ctx context.Context, input ports.ListDoctorsInput) (*ports.ListDoctorsResult, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 20
	}
	if input.Limit > maxPageSize {
		input.Limit = maxPageSize
	}

	doctors, total, err := s.repo.List(ctx, ports.ListDoctorsFilter{
		Specialty: input.Specialty,
		Page:      input.Page,
		Limit:     input.Limit,
	})
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / input.Limit
	if int(total)%input.Limit > 0 {
		totalPages++
	}
	return &ports.ListDoctorsResult{
		Items:      doctors,
		Total:      total,
		Page:       input.Page,
		Limit:      input.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *DoctorService) Update(ctx context.Context, id string, input ports.UpdateDoctorInput) (*domain.Doctor, error) {
	doctor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.LicenseNumber != nil && *input.LicenseNumber != doctor.LicenseNumber {
		if err := s.checkLicenseFree(ctx, *input.LicenseNumber, id); err != nil {
			return nil, err
		}
		doctor.LicenseNumber = *input.LicenseNumber
	}
	if input.Email != nil && *input.Email != doctor.Email {
		if err := s.checkEmailFree(ctx, *input.Email, id); err != nil {
			return nil, err
		}
		doctor.Email = *input.Email
	}
	if input.Name != nil {
		doctor.Name = *input.Name
	}
	if input.Specialty != nil {
		doctor.Specialty = *input.Specialty
	}
	if input.HospitalID != nil {
		doctor.HospitalID = *input.HospitalID
	}
	doctor.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, doctor); err != nil {
		return nil, err
	}
	return doctor, nil
}

func (s *DoctorService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("doctor_id", id).Msg("doctor removed")
	return nil
}

func (s *DoctorService) Counts(ctx context.Context) (*ports.DoctorCounts, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	bySpecialty, err := s.repo.CountBySpecialty(ctx)
	if err != nil {
		return nil, err
	}
	return &ports.DoctorCounts{Total: total, BySpecialty: bySpecialty}, nil
}

// checkLicenseFree fails with ErrLicenseTaken when another doctor already
// holds the license. selfID skips the doctor being updated.
func (s *DoctorService) checkLicenseFree(ctx context.Context, license, selfID string) error {
	existing, err := s.repo.FindByLicense(ctx, license)
	if err != nil {
		if errors.Is(err, domain.ErrDoctorNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != selfID {
		return domain.ErrLicenseTaken
	}
	return nil
}

func (s *DoctorService) checkEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrDoctorNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != selfID {
		return domain.ErrDoctorEmailTaken
	}
	return nil
}
