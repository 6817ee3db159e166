package cron

import (
	"context"
	"time"

	"github.com/compdraw/backend/internal/domain"
	"github.com/compdraw/backend/internal/repository"
	"github.com/compdraw/backend/pkg/xcontext"
)

// AutoDrawCronJob executes the draw of every automatic competition whose
// scheduled draw time has passed.
type AutoDrawCronJob struct {
	drawDomain      domain.DrawDomain
	competitionRepo repository.CompetitionRepository
}

func NewAutoDrawCronJob(
	drawDomain domain.DrawDomain,
	competitionRepo repository.CompetitionRepository,
) *AutoDrawCronJob {
	return &AutoDrawCronJob{
		drawDomain:      drawDomain,
		competitionRepo: competitionRepo,
	}
}

func (job *AutoDrawCronJob) Do(ctx context.Context) {
	competitions, err := job.competitionRepo.GetDueForAutoDraw(ctx, time.Now())
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get due competitions: %v", err)
		return
	}

	for _, competition := range competitions {
		if err := job.drawDomain.ExecuteAuto(ctx, competition.ID); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot auto draw competition %s: %v",
				competition.ID, err)
		}
	}
}

func (job *AutoDrawCronJob) RunNow() bool {
	return true
}

func (job *AutoDrawCronJob) Next() time.Time {
	return time.Now().Add(time.Minute)
}
