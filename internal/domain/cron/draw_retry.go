package cron

import (
	"context"
	"errors"
	"time"

	"github.com/compdraw/backend/internal/domain"
	"github.com/compdraw/backend/internal/repository"
	"github.com/compdraw/backend/pkg/xcontext"
	"gorm.io/gorm"
)

// DrawRetryCronJob consumes due retry jobs left behind by exhausted draws.
// Every job runs at most once, a second failure stays failed for manual
// intervention.
type DrawRetryCronJob struct {
	drawDomain    domain.DrawDomain
	drawRetryRepo repository.DrawRetryRepository
}

func NewDrawRetryCronJob(
	drawDomain domain.DrawDomain,
	drawRetryRepo repository.DrawRetryRepository,
) *DrawRetryCronJob {
	return &DrawRetryCronJob{
		drawDomain:    drawDomain,
		drawRetryRepo: drawRetryRepo,
	}
}

func (job *DrawRetryCronJob) Do(ctx context.Context) {
	retries, err := job.drawRetryRepo.GetDue(ctx, time.Now())
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get due retries: %v", err)
		return
	}

	for _, retry := range retries {
		if err := job.drawRetryRepo.MarkAttempted(ctx, retry.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Another worker consumed it.
				continue
			}

			xcontext.Logger(ctx).Errorf("Cannot consume retry %s: %v", retry.ID, err)
			continue
		}

		if err := job.drawDomain.ExecuteRetry(ctx, retry.CompetitionID); err != nil {
			xcontext.Logger(ctx).Warnf("Draw retry failed for competition %s: %v",
				retry.CompetitionID, err)
		}
	}
}

func (job *DrawRetryCronJob) RunNow() bool {
	return true
}

func (job *DrawRetryCronJob) Next() time.Time {
	return time.Now().Add(30 * time.Second)
}
