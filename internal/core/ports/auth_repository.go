package ports

import (
	"context"
	"time"

	"github.com/vitalmed/staff-registry/internal/core/domain"
)

// ListUsersFilter carries pagination and the optional role filter for
// listing accounts.
type ListUsersFilter struct {
	Role  string // empty = all roles
	Page  int    // 1-based
	Limit int    // max rows per page (capped by the service)
}

// AuthRepository defines the interface for account persistence.
type AuthRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// List returns a page of users matching filter and the total count.
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
	SetActive(ctx context.Context, id string, active bool) error
	// UpdatePassword replaces the stored hash and clears any pending reset token.
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	SetResetToken(ctx context.Context, id string, token string, expires time.Time) error
	// FindByResetToken resolves a reset token that has not expired yet.
	// An unknown or expired token yields domain.ErrInvalidResetToken.
	FindByResetToken(ctx context.Context, token string) (*domain.User, error)
	// PurgeExpiredResetTokens clears reset tokens whose expiry is in the past
	// and returns how many accounts were touched.
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}
