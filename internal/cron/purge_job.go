package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/autoparts-backend/pkg/logger"
)

// PendingRegistrationPurgeJobName identifies the expired-signup cleanup job.
const PendingRegistrationPurgeJobName = "pending-registration-purge"

type pendingRegistrationPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type PendingRegistrationPurgeJobParams struct {
	Logger *logger.Logger
	Purger pendingRegistrationPurger
}

// NewPendingRegistrationPurgeJob deletes pending signups whose code expired.
// Verify and resend already expire records lazily; this job clears the ones
// nobody comes back for.
func NewPendingRegistrationPurgeJob(params PendingRegistrationPurgeJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Purger == nil {
		return nil, fmt.Errorf("registration purger required")
	}
	return &pendingRegistrationPurgeJob{logg: params.Logger, purger: params.Purger}, nil
}

type pendingRegistrationPurgeJob struct {
	logg   *logger.Logger
	purger pendingRegistrationPurger
}

func (j *pendingRegistrationPurgeJob) Name() string { return PendingRegistrationPurgeJobName }

func (j *pendingRegistrationPurgeJob) Run(ctx context.Context) error {
	deleted, err := j.purger.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("purge pending registrations: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "rows_deleted", deleted), "pending registration purge complete")
	return nil
}
