package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vitalmed/staff-registry/internal/core/domain"
	"github.com/vitalmed/staff-registry/internal/core/ports"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService implementation backed by the given
// repository.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Process persists a single activity entry. The timestamp is filled in only
// when the producer did not stamp one.
func (s *auditService) Process(ctx context.Context, event domain.AuditEvent) error {
	if event.Account == "" || event.Action == "" {
		return domain.ErrInvalidAuditEvent
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	if err := s.repo.Insert(ctx, &event); err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}

	s.log.Debug().
		Str("account", event.Account).
		Str("action", event.Action).
		Msg("audit event recorded")
	return nil
}
