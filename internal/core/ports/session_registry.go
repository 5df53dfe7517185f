package ports

import (
	"context"

	"github.com/vitalmed/staff-registry/internal/core/domain"
)

// SessionRegistry tracks live issued tokens so they can be revoked before
// their natural expiry. Entries disappear on their own once the token
// would have expired anyway.
type SessionRegistry interface {
	Register(ctx context.Context, s domain.Session) error
	// Get resolves a live session by token id. Revoked or expired sessions
	// yield domain.ErrSessionNotFound.
	Get(ctx context.Context, id string) (*domain.Session, error)
	Revoke(ctx context.Context, id string) error
	// RevokeUser revokes every live session of one user and returns how
	// many were dropped.
	RevokeUser(ctx context.Context, userID string) (int64, error)
}
