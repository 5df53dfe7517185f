package ports

import (
	"context"

	"github.com/vitalmed/staff-registry/internal/core/domain"
)

// AuditService validates and persists one account activity entry.
type AuditService interface {
	Process(ctx context.Context, event domain.AuditEvent) error
}

// AuditTrail is the producer side of the activity trail. Record hands the
// entry off for asynchronous persistence and never blocks the caller; a
// trail that cannot keep up drops entries rather than slowing sign-in.
type AuditTrail interface {
	Record(event domain.AuditEvent)
}
