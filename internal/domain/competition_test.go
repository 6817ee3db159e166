package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/compdraw/backend/internal/entity"
	"github.com/compdraw/backend/internal/model"
	"github.com/compdraw/backend/internal/repository"
	"github.com/compdraw/backend/pkg/errorx"
	"github.com/compdraw/backend/pkg/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Test_competitionDomain_Create(t *testing.T) {
	ctx := testutil.MockContext()
	domain := NewCompetitionDomain(repository.NewCompetitionRepository())

	resp, err := domain.Create(ctx, &model.CreateCompetitionRequest{
		Title:      "Win a Dream Car!",
		MaxTickets: 500,
		Price:      4.99,
		DrawMode:   "manual",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)

	got, err := domain.Get(ctx, &model.GetCompetitionRequest{ID: resp.ID})
	require.NoError(t, err)
	require.Equal(t, "win-a-dream-car", got.Slug)
	require.Equal(t, string(entity.CompetitionDraft), got.Status)
	require.Equal(t, 500, got.TicketsRemaining)

	bySlug, err := domain.Get(ctx, &model.GetCompetitionRequest{Slug: "win-a-dream-car"})
	require.NoError(t, err)
	require.Equal(t, resp.ID, bySlug.ID)
}

func Test_competitionDomain_Create_invalid(t *testing.T) {
	ctx := testutil.MockContext()
	domain := NewCompetitionDomain(repository.NewCompetitionRepository())

	testcases := []struct {
		name string
		req  model.CreateCompetitionRequest
	}{
		{
			name: "empty title",
			req:  model.CreateCompetitionRequest{MaxTickets: 10, DrawMode: "manual"},
		},
		{
			name: "no tickets",
			req:  model.CreateCompetitionRequest{Title: "Prize", DrawMode: "manual"},
		},
		{
			name: "invalid draw mode",
			req:  model.CreateCompetitionRequest{Title: "Prize", MaxTickets: 10, DrawMode: "random"},
		},
		{
			name: "auto draw in the past",
			req: model.CreateCompetitionRequest{
				Title:      "Prize",
				MaxTickets: 10,
				DrawMode:   "auto",
				DrawAt:     time.Now().Add(-time.Hour),
			},
		},
		{
			name: "too many instant wins",
			req: model.CreateCompetitionRequest{
				Title:            "Prize",
				MaxTickets:       10,
				DrawMode:         "manual",
				InstantWinsCount: 11,
			},
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.Create(ctx, &tc.req)
			require.Error(t, err)
			errx := errorx.Error{}
			require.True(t, errors.As(err, &errx))
			require.Equal(t, errorx.BadRequest, errx.Code)
		})
	}
}

func Test_competitionDomain_SetStatus(t *testing.T) {
	ctx := testutil.MockContext()
	domain := NewCompetitionDomain(repository.NewCompetitionRepository())

	testcases := []struct {
		from    entity.CompetitionStatus
		to      string
		allowed bool
	}{
		{from: entity.CompetitionDraft, to: "live", allowed: true},
		{from: entity.CompetitionDraft, to: "sold_out", allowed: false},
		{from: entity.CompetitionLive, to: "paused", allowed: true},
		{from: entity.CompetitionLive, to: "draft", allowed: false},
		{from: entity.CompetitionPaused, to: "live", allowed: true},
		{from: entity.CompetitionSoldOut, to: "cancelled", allowed: true},
		{from: entity.CompetitionSoldOut, to: "live", allowed: false},
		{from: entity.CompetitionDrawn, to: "live", allowed: false},
		{from: entity.CompetitionCancelled, to: "live", allowed: false},
		{from: entity.CompetitionFailed, to: "live", allowed: true},
	}

	for _, tc := range testcases {
		t.Run(string(tc.from)+" to "+tc.to, func(t *testing.T) {
			competition, err := testutil.SampleCompetition(ctx, &entity.Competition{Status: tc.from})
			require.NoError(t, err)

			_, err = domain.SetStatus(ctx, &model.SetCompetitionStatusRequest{
				ID:     competition.ID,
				Status: tc.to,
			})

			if tc.allowed {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func Test_competitionDomain_GetList(t *testing.T) {
	ctx := testutil.MockContext()
	domain := NewCompetitionDomain(repository.NewCompetitionRepository())

	_, err := testutil.SampleCompetition(ctx, &entity.Competition{Status: entity.CompetitionLive})
	require.NoError(t, err)
	_, err = testutil.SampleCompetition(ctx, &entity.Competition{Status: entity.CompetitionDraft})
	require.NoError(t, err)
	_, err = testutil.SampleCompetition(ctx, &entity.Competition{Status: entity.CompetitionDrawn})
	require.NoError(t, err)

	// The default listing hides drafts.
	resp, err := domain.GetList(ctx, &model.GetListCompetitionRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Competitions, 2)

	resp, err = domain.GetList(ctx, &model.GetListCompetitionRequest{Statuses: "draft"})
	require.NoError(t, err)
	require.Len(t, resp.Competitions, 1)

	_, err = domain.GetList(ctx, &model.GetListCompetitionRequest{Statuses: "bogus"})
	require.Error(t, err)
}

func Test_competitionRepository_IncreaseSold(t *testing.T) {
	ctx := testutil.MockContext()
	competitionRepo := repository.NewCompetitionRepository()

	competition, err := testutil.SampleCompetition(ctx, &entity.Competition{MaxTickets: 10})
	require.NoError(t, err)

	require.NoError(t, competitionRepo.IncreaseSold(ctx, competition.ID, 4))

	reloaded, err := competitionRepo.GetByID(ctx, competition.ID)
	require.NoError(t, err)
	require.Equal(t, 4, reloaded.TicketsSold)
	require.Equal(t, entity.CompetitionLive, reloaded.Status)

	// The counter never exceeds capacity, selling the final ticket flips
	// the status.
	err = competitionRepo.IncreaseSold(ctx, competition.ID, 7)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, competitionRepo.IncreaseSold(ctx, competition.ID, 6))

	reloaded, err = competitionRepo.GetByID(ctx, competition.ID)
	require.NoError(t, err)
	require.Equal(t, 10, reloaded.TicketsSold)
	require.Equal(t, entity.CompetitionSoldOut, reloaded.Status)

	err = competitionRepo.IncreaseSold(ctx, competition.ID, 1)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func Test_competitionDomain_GetTicketsRemaining(t *testing.T) {
	ctx := testutil.MockContext()
	domain := NewCompetitionDomain(repository.NewCompetitionRepository())

	competition, err := testutil.SampleCompetition(ctx, &entity.Competition{
		MaxTickets:  20,
		TicketsSold: 8,
	})
	require.NoError(t, err)

	resp, err := domain.GetTicketsRemaining(ctx, &model.GetTicketsRemainingRequest{
		CompetitionID: competition.ID,
	})
	require.NoError(t, err)
	require.Equal(t, 12, resp.TicketsRemaining)

	_, err = domain.GetTicketsRemaining(ctx, &model.GetTicketsRemainingRequest{
		CompetitionID: "missing",
	})
	require.Error(t, err)
	errx := errorx.Error{}
	require.True(t, errors.As(err, &errx))
	require.Equal(t, errorx.NotFound, errx.Code)
}
