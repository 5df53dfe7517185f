// Package jobs runs the registry's background maintenance tasks on asynq.
package jobs

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

const (
	// QueueDefault is the queue maintenance tasks run on.
	QueueDefault = "default"
	// TaskPurgeResetTokens sweeps expired password reset tokens out of the
	// user store.
	TaskPurgeResetTokens = "auth:purge_reset_tokens"
)

// NewPurgeResetTokensTask constructs the periodic sweep task. The task
// carries no payload.
func NewPurgeResetTokensTask() *asynq.Task {
	return asynq.NewTask(TaskPurgeResetTokens, nil)
}

// ResetTokenPurger is the slice of the auth service the sweep needs.
type ResetTokenPurger interface {
	PurgeExpiredResetTokens(ctx context.Context) (int64, error)
}

// PurgeResetTokensJob removes reset tokens whose window has passed. Expired
// tokens are already rejected at use time; the sweep keeps stale secrets
// from accumulating in storage.
type PurgeResetTokensJob struct {
	auth   ResetTokenPurger
	logger zerolog.Logger
}

func NewPurgeResetTokensJob(auth ResetTokenPurger, logger zerolog.Logger) *PurgeResetTokensJob {
	return &PurgeResetTokensJob{auth: auth, logger: logger}
}

func (j *PurgeResetTokensJob) Handle(ctx context.Context, _ *asynq.Task) error {
	purged, err := j.auth.PurgeExpiredResetTokens(ctx)
	if err != nil {
		j.logger.Error().Err(err).Msg("reset token purge failed")
		return err
	}
	if purged > 0 {
		j.logger.Info().Int64("purged", purged).Msg("reset tokens purged")
	}
	return nil
}
