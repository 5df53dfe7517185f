package ports

import (
	"context"

	"github.com/vitalmed/staff-registry/internal/core/domain"
)

// AuditRepository persists account activity entries.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
}
