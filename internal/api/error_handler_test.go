package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/vitalmed/staff-registry/internal/api/handler"
	"github.com/vitalmed/staff-registry/internal/core/domain"
)

func renderError(t *testing.T, err error) (*httptest.ResponseRecorder, errorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return rec, resp
}

func TestErrorHandler_DomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrUserInactive, http.StatusUnauthorized},
		{domain.ErrSessionNotFound, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{domain.ErrDoctorNotFound, http.StatusNotFound},
		{domain.ErrUserExists, http.StatusConflict},
		{domain.ErrLicenseTaken, http.StatusConflict},
		{domain.ErrDoctorEmailTaken, http.StatusConflict},
		{domain.ErrInvalidRole, http.StatusBadRequest},
		{domain.ErrWrongPassword, http.StatusBadRequest},
		{domain.ErrInvalidResetToken, http.StatusBadRequest},
	}

	for _, tc := range cases {
		rec, _ := renderError(t, tc.err)
		if rec.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
	}

	// Wrapped sentinels must map the same way.
	rec, _ := renderError(t, fmt.Errorf("find account: %w", domain.ErrUserNotFound))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("wrapped sentinel: expected 404, got %d", rec.Code)
	}
}

func TestErrorHandler_ValidationFields(t *testing.T) {
	verr := &handler.ValidationError{Fields: map[string]string{"email": "must be a valid email"}}

	rec, resp := renderError(t, verr)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp.Error != "validation failed" {
		t.Fatalf("unexpected message %q", resp.Error)
	}
	if resp.Fields["email"] != "must be a valid email" {
		t.Fatalf("expected field reasons, got %+v", resp.Fields)
	}
}

func TestErrorHandler_EchoHTTPError(t *testing.T) {
	rec, resp := renderError(t, echo.NewHTTPError(http.StatusUnauthorized, "invalid token"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if resp.Error != "invalid token" {
		t.Fatalf("unexpected message %q", resp.Error)
	}
}

func TestErrorHandler_UnknownErrorHidesDetails(t *testing.T) {
	rec, resp := renderError(t, errors.New("mongo: socket was unexpectedly closed"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if resp.Error != "internal server error" {
		t.Fatalf("internal detail leaked: %q", resp.Error)
	}
}
