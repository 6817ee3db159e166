package cron

import (
	"testing"
	"time"

	"github.com/compdraw/backend/internal/domain"
	"github.com/compdraw/backend/internal/entity"
	"github.com/compdraw/backend/internal/repository"
	"github.com/compdraw/backend/pkg/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newDrawDomainForTest() domain.DrawDomain {
	return domain.NewDrawDomain(
		repository.NewDrawRepository(),
		repository.NewDrawRetryRepository(),
		repository.NewTicketRepository(),
		repository.NewCompetitionRepository(),
	)
}

func Test_AutoDrawCronJob(t *testing.T) {
	ctx := testutil.MockContext()

	due, err := testutil.SampleCompetition(ctx, &entity.Competition{
		MaxTickets: 10,
		DrawMode:   entity.DrawModeAuto,
		DrawAt:     time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)
	_, err = testutil.SampleTickets(ctx, due.ID, "order-1", "user-1", 1, 2, 3)
	require.NoError(t, err)

	notDue, err := testutil.SampleCompetition(ctx, &entity.Competition{
		MaxTickets: 10,
		DrawMode:   entity.DrawModeAuto,
		DrawAt:     time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = testutil.SampleTickets(ctx, notDue.ID, "order-2", "user-2", 1)
	require.NoError(t, err)

	job := NewAutoDrawCronJob(newDrawDomainForTest(), repository.NewCompetitionRepository())
	job.Do(ctx)

	competitionRepo := repository.NewCompetitionRepository()
	reloaded, err := competitionRepo.GetByID(ctx, due.ID)
	require.NoError(t, err)
	require.Equal(t, entity.CompetitionDrawn, reloaded.Status)

	reloaded, err = competitionRepo.GetByID(ctx, notDue.ID)
	require.NoError(t, err)
	require.Equal(t, entity.CompetitionLive, reloaded.Status)
}

func Test_DrawRetryCronJob(t *testing.T) {
	ctx := testutil.MockContext()

	competition, err := testutil.SampleCompetition(ctx, &entity.Competition{
		MaxTickets: 10,
		Status:     entity.CompetitionFailed,
	})
	require.NoError(t, err)
	_, err = testutil.SampleTickets(ctx, competition.ID, "order-1", "user-1", 1, 2, 3)
	require.NoError(t, err)

	drawRetryRepo := repository.NewDrawRetryRepository()
	retry := &entity.DrawRetry{
		Base:          entity.Base{ID: uuid.NewString()},
		CompetitionID: competition.ID,
		ExecuteAt:     time.Now().Add(-time.Second),
	}
	require.NoError(t, drawRetryRepo.Create(ctx, retry))

	job := NewDrawRetryCronJob(newDrawDomainForTest(), drawRetryRepo)
	job.Do(ctx)

	competitionRepo := repository.NewCompetitionRepository()
	reloaded, err := competitionRepo.GetByID(ctx, competition.ID)
	require.NoError(t, err)
	require.Equal(t, entity.CompetitionDrawn, reloaded.Status)

	// The retry was consumed, running the job again is a no-op.
	due, err := drawRetryRepo.GetDue(ctx, time.Now())
	require.NoError(t, err)
	require.Empty(t, due)

	job.Do(ctx)
	reloaded, err = competitionRepo.GetByID(ctx, competition.ID)
	require.NoError(t, err)
	require.Equal(t, entity.CompetitionDrawn, reloaded.Status)
}
