package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vitalmed/staff-registry/internal/core/domain"
	"github.com/vitalmed/staff-registry/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubDoctorRepo struct {
	doctors   map[string]*domain.Doctor
	order     []string
	seq       int
	createErr error // if set, Create returns this error
}

func newStubDoctorRepo() *stubDoctorRepo {
	return &stubDoctorRepo{doctors: make(map[string]*domain.Doctor)}
}

func cloneDoctor(d *domain.Doctor) *domain.Doctor {
	if d == nil {
		return nil
	}
	clone := *d
	return &clone
}

func (r *stubDoctorRepo) Create(_ context.Context, d *domain.Doctor) (*domain.Doctor, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, existing := range r.doctors {
		if existing.LicenseNumber == d.LicenseNumber {
			return nil, domain.ErrLicenseTaken
		}
	}
	copy := cloneDoctor(d)
	r.seq++
	copy.ID = fmt.Sprintf("d%d", r.seq)
	r.doctors[copy.ID] = cloneDoctor(copy)
	r.order = append(r.order, copy.ID)
	return copy, nil
}

func (r *stubDoctorRepo) FindByID(_ context.Context, id string) (*domain.Doctor, error) {
	d, ok := r.doctors[id]
	if !ok {
		return nil, domain.ErrDoctorNotFound
	}
	return cloneDoctor(d), nil
}

func (r *stubDoctorRepo) FindByLicense(_ context.Context, license string) (*domain.Doctor, error) {
	for _, d := range r.doctors {
		if d.LicenseNumber == license {
			return cloneDoctor(d), nil
		}
	}
	return nil, domain.ErrDoctorNotFound
}

func (r *stubDoctorRepo) FindByEmail(_ context.Context, email string) (*domain.Doctor, error) {
	for _, d := range r.doctors {
		if d.Email == email {
			return cloneDoctor(d), nil
		}
	}
	return nil, domain.ErrDoctorNotFound
}

func (r *stubDoctorRepo) List(_ context.Context, f ports.ListDoctorsFilter) ([]*domain.Doctor, int64, error) {
	var matched []*domain.Doctor
	for _, id := range r.order {
		d := r.doctors[id]
		if f.Specialty != "" && !strings.EqualFold(d.Specialty, f.Specialty) {
			continue
		}
		matched = append(matched, cloneDoctor(d))
	}
	total := int64(len(matched))
	start := (f.Page - 1) * f.Limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *stubDoctorRepo) Update(_ context.Context, d *domain.Doctor) error {
	if _, ok := r.doctors[d.ID]; !ok {
		return domain.ErrDoctorNotFound
	}
	r.doctors[d.ID] = cloneDoctor(d)
	return nil
}

func (r *stubDoctorRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.doctors[id]; !ok {
		return domain.ErrDoctorNotFound
	}
	delete(r.doctors, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *stubDoctorRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.doctors)), nil
}

func (r *stubDoctorRepo) CountBySpecialty(_ context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, d := range r.doctors {
		counts[d.Specialty]++
	}
	return counts, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

func doctorInput(license, email string) ports.CreateDoctorInput {
	return ports.CreateDoctorInput{
		Name:          "Gregório Maia",
		LicenseNumber: license,
		Specialty:     "Cardiology",
		Email:         email,
		HospitalID:    "hosp_1",
	}
}

// ---------------------------------------------------------------------------
// Create tests
// ---------------------------------------------------------------------------

func TestDoctorService_Create_Success(t *testing.T) {
	repo := newStubDoctorRepo()
	svc := NewDoctorService(repo, discardLogger)

	created, err := svc.Create(context.Background(), doctorInput("CRM-1001", "greg@hospital.org"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == "" {
		t.Error("expected assigned id")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("timestamps must be set")
	}
}

func TestDoctorService_Create_DuplicateLicense(t *testing.T) {
	repo := newStubDoctorRepo()
	svc := NewDoctorService(repo, discardLogger)

	if _, err := svc.Create(context.Background(), doctorInput("CRM-1001", "a@hospital.org")); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	_, err := svc.Create(context.Background(), doctorInput("CRM-1001", "b@hospital.org"))
	if !errors.Is(err, domain.ErrLicenseTaken) {
		t.Errorf("expected ErrLicenseTaken, got %v", err)
	}
}

func TestDoctorService_Create_DuplicateEmail(t *testing.T) {
	repo := newStubDoctorRepo()
	svc := NewDoctorService(repo, discardLogger)

	if _, err := svc.Create(context.Background(), doctorInput("CRM-1001", "same@hospital.org")); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	_, err := svc.Create(context.Background(), doctorInput("CRM-2002", "same@hospital.org"))
	if !errors.Is(err, domain.ErrDoctorEmailTaken) {
		t.Errorf("expected ErrDoctorEmailTaken, got %v", err)
	}
}

func TestDoctorService_Create_RepoError(t *testing.T) {
	repo := newStubDoctorRepo()
	repo.createErr = errors.New("db unavailable")
	svc := NewDoctorService(repo, discardLogger)

	if _, err := svc.Create(context.Background(), doctorInput("CRM-1001", "x@hospital.org")); err == nil {
		t.Fatal("expected error when repo fails, got nil")
	}
}

// ---------------------------------------------------------------------------
// Lookup tests
// ---------------------------------------------------------------------------

func TestDoctorService_GetByLicense(t *testing.T) {
	repo := newStubDoctorRepo()
	svc := NewDoctorService(repo, discardLogger)
	created, _ := svc.Create(context.Background(), doctorInput("CRM-7777", "lic@hospital.org"))

	got, err := svc.GetByLicense(context.Background(), "CRM-7777")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("expected doctor %s, got %s", created.ID, got.ID)
	}

	if _, err := svc.GetByLicense(context.Background(), "CRM-0000"); !errors.Is(err, domain.ErrDoctorNotFound) {
		t.Errorf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestDoctorService_List_FilterBySpecialty(t *testing.T) {
	repo := newStubDoctorRepo()
	svc := NewDoctorService(repo, discardLogger)

	in1 := doctorInput("CRM-1", "c1@hospital.org")
	in2 := doctorInput("CRM-2", "c2@hospital.org")
	in2.Specialty = "Pediatrics"
	_, _ = svc.Create(context.Background(), in1)
	_, _ = svc.Create(context.Background(), in2)

	res, err := svc.List(context.Background(), ports.ListDoctorsInput{Specialty: "pediatrics", Page: 1, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 {
		t.Errorf("specialty filter: expected 1, got %d", res.Total)
	}
	if res.Items[0].Specialty != "Pediatrics" {
		t.Errorf("unexpected item: %+v", res.Items[0])
	}
}

func TestDoctorService_List_PaginationMath(t *testing.T) {
	repo := newStubDoctorRepo()
	svc := NewDoctorService(repo, discardLogger)

	for i := 0; i < 5; i++ {
		_, _ = svc.Create(context.Background(), doctorInput(fmt.Sprintf("CRM-%d", i), fmt.Sprintf("p%d@hospital.org", i)))
	}

	res, err := svc.List(context.Background(), ports.ListDoctorsInput{Limit: 2, Page: 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 5 {
		t.Errorf("total: expected 5, got %d", res.Total)
	}
	if res.TotalPages != 3 {
		t.Errorf("total_pages: expected 3, got %d", res.TotalPages)
	}
	if len(res.Items) != 2 {
		t.Errorf("items: expected 2, got %d", len(res.Items))
	}

	capped, err := svc.List(context.Background(), ports.ListDoctorsInput{Limit: 999, Page: 0})
	if err != nil {
		t.Fatal(err)
	}
	if capped.Limit != 100 || capped.Page != 1 {
		t.Errorf("expected normalized limit/page, got %d/%d", capped.Limit, capped.Page)
	}
}

// ---------------------------------------------------------------------------
// Update tests
// ---------------------------------------------------------------------------

func strptr(s string) *string { return &s }

func TestDoctorService_Update_Partial(t *testing.T) {
	repo := newStubDoctorRepo()
	svc := NewDoctorService(repo, discardLogger)
	created, _ := svc.Create(context.Background(), doctorInput("CRM-1001", "upd@hospital.org"))

	before := created.UpdatedAt
	time.Sleep(time.Millisecond)

	updated, err := svc.Update(context.Background(), created.ID, ports.UpdateDoctorInput{
		Specialty: strptr("Oncology"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Specialty != "Oncology" {
		t.Errorf("specialty not updated: %q", updated.Specialty)
	}
	if updated.Name != created.Name || updated.LicenseNumber != created.LicenseNumber {
		t.Error("untouched fields must be preserved")
	}
	if !updated.UpdatedAt.After(before) {
		t.Error("UpdatedAt must advance")
	}
}

func TestDoctorService_Update_LicenseConflict(t *testing.T) {
	repo := newStubDoctorRepo()
	svc := NewDoctorService(repo, discardLogger)
	_, _ = svc.Create(context.Background(), doctorInput("CRM-1001", "one@hospital.org"))
	second, _ := svc.Create(context.Background(), doctorInput("CRM-2002", "two@hospital.org"))

	_, err := svc.Update(context.Background(), second.ID, ports.UpdateDoctorInput{
		LicenseNumber: strptr("CRM-1001"),
	})
	if !errors.Is(err, domain.ErrLicenseTaken) {
		t.Errorf("expected ErrLicenseTaken, got %v", err)
	}

	// Re-submitting the doctor's own license is not a conflict.
	if _, err := svc.Update(context.Background(), second.ID, ports.UpdateDoctorInput{
		LicenseNumber: strptr("CRM-2002"),
	}); err != nil {
		t.Errorf("own license must not conflict: %v", err)
	}
}

func TestDoctorService_Update_NotFound(t *testing.T) {
	repo := newStubDoctorRepo()
	svc := NewDoctorService(repo, discardLogger)

	_, err := svc.Update(context.Background(), "missing", ports.UpdateDoctorInput{Name: strptr("X")})
	if !errors.Is(err, domain.ErrDoctorNotFound) {
		t.Errorf("expected ErrDoctorNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Delete and counts
// ---------------------------------------------------------------------------

func TestDoctorService_Delete(t *testing.T) {
	repo := newStubDoctorRepo()
	svc := NewDoctorService(repo, discardLogger)
	created, _ := svc.Create(context.Background(), doctorInput("CRM-1001", "del@hospital.org"))

	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Get(context.Background(), created.ID); !errors.Is(err, domain.ErrDoctorNotFound) {
		t.Errorf("expected ErrDoctorNotFound after delete, got %v", err)
	}
	if err := svc.Delete(context.Background(), created.ID); !errors.Is(err, domain.ErrDoctorNotFound) {
		t.Errorf("second delete: expected ErrDoctorNotFound, got %v", err)
	}
}

func TestDoctorService_Counts(t *testing.T) {
	repo := newStubDoctorRepo()
	svc := NewDoctorService(repo, discardLogger)

	in1 := doctorInput("CRM-1", "a@hospital.org")
	in2 := doctorInput("CRM-2", "b@hospital.org")
	in3 := doctorInput("CRM-3", "c@hospital.org")
	in3.Specialty = "Pediatrics"
	_, _ = svc.Create(context.Background(), in1)
	_, _ = svc.Create(context.Background(), in2)
	_, _ = svc.Create(context.Background(), in3)

	counts, err := svc.Counts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts.Total != 3 {
		t.Errorf("total: expected 3, got %d", counts.Total)
	}
	if counts.BySpecialty["Cardiology"] != 2 || counts.BySpecialty["Pediatrics"] != 1 {
		t.Errorf("unexpected specialty counts: %+v", counts.BySpecialty)
	}
}
