package domain

import (
	"errors"
	"time"
)

// Roles assignable to registry accounts. RoleUser is the least-privileged
// variant and the fallback for role strings the registry does not know.
const (
	RoleAdmin  = "admin"
	RoleDoctor = "doctor"
	RoleNurse  = "nurse"
	RoleUser   = "user"
)

var ErrInvalidCredentials = errors.New("incorrect email or password")
var ErrTooManyAttempts = errors.New("too many failed sign-in attempts, try again later")
var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("email already registered")
var ErrUserInactive = errors.New("user account is inactive")
var ErrInvalidRole = errors.New("invalid role")
var ErrDoctorFieldsRequired = errors.New("license number and specialty are required for doctors")
var ErrWrongPassword = errors.New("current password is incorrect")
var ErrInvalidResetToken = errors.New("invalid or expired reset token")
var ErrForbidden = errors.New("access forbidden")

// ValidRole reports whether role is one of the assignable roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleDoctor, RoleNurse, RoleUser:
		return true
	}
	return false
}

// User models a registry account. LicenseNumber and Specialty are set only
// for the doctor role. PasswordHash and the reset-token pair never leave
// the service.
type User struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	Role              string    `json:"role"`
	LicenseNumber     string    `json:"licenseNumber,omitempty"`
	Specialty         string    `json:"specialty,omitempty"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
	ResetToken        string    `json:"-"`
	ResetTokenExpires time.Time `json:"-"`
}
