package ports

import (
	"context"

	"github.com/vitalmed/staff-registry/internal/core/domain"
)

// RegisterInput carries all data needed to create a new account.
// LicenseNumber and Specialty are required when Role is doctor.
type RegisterInput struct {
	Name          string
	Email         string
	Password      string
	Role          string
	LicenseNumber string
	Specialty     string
}

// LoginResult is returned by Login on success.
type LoginResult struct {
	Token string
	User  *domain.User
}

// ListUsersInput carries all parameters for the account list endpoints.
type ListUsersInput struct {
	Role  string
	Page  int
	Limit int
}

// ListUsersResult is returned by ListUsers.
type ListUsersResult struct {
	Items      []*domain.User
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ChangePasswordInput carries a password change for an authenticated user.
type ChangePasswordInput struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
}

// ConfirmResetInput carries a password reset confirmation.
type ConfirmResetInput struct {
	Token       string
	NewPassword string
}

// AuthStatus describes the caller's authentication state and capabilities.
type AuthStatus struct {
	Authenticated bool
	User          *domain.User
	Permissions   []string
}

// AuthService defines use-case operations for accounts and credentials.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// Logout revokes one session of the given user. Revoking a session
	// that is already gone is not an error.
	Logout(ctx context.Context, userID, sessionID string) error
	// Me returns the account behind an authenticated request. Inactive or
	// deleted accounts yield an error even when the token is still valid.
	Me(ctx context.Context, userID string) (*domain.User, error)
	// Status reports the caller's account together with the permission set
	// its role carries.
	Status(ctx context.Context, userID string) (*AuthStatus, error)
	// SetUserActive toggles the active flag. Deactivating also revokes the
	// user's live sessions.
	SetUserActive(ctx context.Context, userID string, active bool) error
	ListUsers(ctx context.Context, input ListUsersInput) (*ListUsersResult, error)
	ChangePassword(ctx context.Context, input ChangePasswordInput) error
	// RequestPasswordReset issues a reset token for the given email. The
	// empty string is returned when the email is unknown so handlers can
	// avoid revealing which addresses exist.
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ConfirmPasswordReset(ctx context.Context, input ConfirmResetInput) error
	// PurgeExpiredResetTokens is run periodically by the maintenance worker.
	PurgeExpiredResetTokens(ctx context.Context) (int64, error)
}
