package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vitalmed/staff-registry/internal/core/domain"
	"github.com/vitalmed/staff-registry/internal/core/ports"
)

// DoctorHandler handles HTTP requests for the doctor directory.
type DoctorHandler struct {
	service ports.DoctorService
}

func NewDoctorHandler(service ports.DoctorService) *DoctorHandler {
	return &DoctorHandler{service: service}
}

// Create adds a doctor record.
//
// @Summary      Add a doctor
// @Tags         doctors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createDoctorRequest  true  "Doctor details"
// @Success      201   {object}  domain.Doctor
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/doctors [post]
func (h *DoctorHandler) Create(c echo.Context) error {
	var req createDoctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	doctor, err := h.service.Create(c.Request().Context(), ports.CreateDoctorInput{
		Name:          req.Name,
		LicenseNumber: req.LicenseNumber,
		Specialty:     req.Specialty,
		Email:         req.Email,
		HospitalID:    req.HospitalID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrLicenseTaken) || errors.Is(err, domain.ErrDoctorEmailTaken) {
			return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
		}
		return err
	}

	return c.JSON(http.StatusCreated, doctor)
}

// Get returns one doctor by id.
//
// @Summary      Get a doctor
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Doctor id"
// @Success      200  {object}  domain.Doctor
// @Failure      404  {object}  errorResponse
// @Router       /v1/doctors/{id} [get]
func (h *DoctorHandler) Get(c echo.Context) error {
	doctor, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrDoctorNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		}
		return err
	}
	return c.JSON(http.StatusOK, doctor)
}

// GetByLicense returns one doctor by license number.
//
// @Summary      Get a doctor by license number
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Param        license  path      string  true  "License number"
// @Success      200      {object}  domain.Doctor
// @Failure      404      {object}  errorResponse
// @Router       /v1/doctors/license/{license} [get]
func (h *DoctorHandler) GetByLicense(c echo.Context) error {
	doctor, err := h.service.GetByLicense(c.Request().Context(), c.Param("license"))
	if err != nil {
		if errors.Is(err, domain.ErrDoctorNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		}
		return err
	}
	return c.JSON(http.StatusOK, doctor)
}

// List lists doctors with optional specialty filter and pagination.
//
// @Summary      List doctors
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Param        specialty  query     string  false  "Filter by specialty (exact, case-insensitive)"
// @Param        page       query     int     false  "Page number (1-based)"
// @Param        limit      query     int     false  "Page size"
// @Success      200        {object}  listDoctorsResponse
// @Failure      403        {object}  errorResponse
// @Router       /v1/doctors [get]
func (h *DoctorHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.service.List(c.Request().Context(), ports.ListDoctorsInput{
		Specialty: c.QueryParam("specialty"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listDoctorsResponse{
		Items:      result.Items,
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: result.TotalPages,
	})
}

// Update applies a partial update to a doctor record.
//
// @Summary      Update a doctor
// @Tags         doctors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Doctor id"
// @Param        body  body      updateDoctorRequest  true  "Fields to change"
// @Success      200   {object}  domain.Doctor
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/doctors/{id} [put]
func (h *DoctorHandler) Update(c echo.Context) error {
	var req updateDoctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	doctor, err := h.service.Update(c.Request().Context(), c.Param("id"), ports.UpdateDoctorInput{
		Name:          req.Name,
		LicenseNumber: req.LicenseNumber,
		Specialty:     req.Specialty,
		Email:         req.Email,
		HospitalID:    req.HospitalID,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDoctorNotFound):
			return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		case errors.Is(err, domain.ErrLicenseTaken), errors.Is(err, domain.ErrDoctorEmailTaken):
			return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
		default:
			return err
		}
	}

	return c.JSON(http.StatusOK, doctor)
}

// Delete removes a doctor record.
//
// @Summary      Delete a doctor
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Doctor id"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/doctors/{id} [delete]
func (h *DoctorHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrDoctorNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		}
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "doctor deleted"})
}

// Counts reports directory size overall and per specialty.
//
// @Summary      Doctor counts
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  doctorCountsResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/doctors/counts [get]
func (h *DoctorHandler) Counts(c echo.Context) error {
	counts, err := h.service.Counts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doctorCountsResponse{
		Total:       counts.Total,
		BySpecialty: counts.BySpecialty,
	})
}
