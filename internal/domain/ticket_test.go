package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/compdraw/backend/internal/entity"
	"github.com/compdraw/backend/internal/model"
	"github.com/compdraw/backend/internal/repository"
	"github.com/compdraw/backend/pkg/errorx"
	"github.com/compdraw/backend/pkg/testutil"
	"github.com/compdraw/backend/pkg/xcontext"
	"golang.org/x/sync/errgroup"

	"github.com/stretchr/testify/require"
)

func Test_ticketDomain_Allocate(t *testing.T) {
	ctx := testutil.MockContext()
	competition, err := testutil.SampleCompetition(ctx, &entity.Competition{MaxTickets: 10})
	require.NoError(t, err)

	domain := NewTicketDomain(
		repository.NewTicketRepository(), repository.NewCompetitionRepository())

	resp, err := domain.Allocate(ctx, &model.AllocateTicketsRequest{
		CompetitionID: competition.ID,
		OrderID:       "order-1",
		UserID:        "user-1",
		Quantity:      3,
	})
	require.NoError(t, err)
	require.Len(t, resp.Numbers, 3)

	seen := map[int]bool{}
	for _, n := range resp.Numbers {
		require.GreaterOrEqual(t, n, 1)
		require.LessOrEqual(t, n, 10)
		require.False(t, seen[n])
		seen[n] = true
	}

	// Only 7 numbers remain, a request for 8 must be refused.
	_, err = domain.Allocate(ctx, &model.AllocateTicketsRequest{
		CompetitionID: competition.ID,
		OrderID:       "order-2",
		UserID:        "user-2",
		Quantity:      8,
	})
	require.Error(t, err)
	errx := errorx.Error{}
	require.True(t, errors.As(err, &errx))
	require.Equal(t, errorx.InsufficientCapacity, errx.Code)
	require.Equal(t, "Only 7 tickets remaining", errx.Message)
}

func Test_ticketDomain_Allocate_uniqueness(t *testing.T) {
	ctx := testutil.MockContext()
	competition, err := testutil.SampleCompetition(ctx, &entity.Competition{MaxTickets: 20})
	require.NoError(t, err)

	domain := NewTicketDomain(
		repository.NewTicketRepository(), repository.NewCompetitionRepository())

	for i := 0; i < 4; i++ {
		_, err := domain.Allocate(ctx, &model.AllocateTicketsRequest{
			CompetitionID: competition.ID,
			OrderID:       "order",
			UserID:        "user",
			Quantity:      5,
		})
		require.NoError(t, err)
	}

	ticketRepo := repository.NewTicketRepository()
	numbers, err := ticketRepo.GetNumbers(ctx, competition.ID)
	require.NoError(t, err)
	require.Len(t, numbers, 20)

	seen := map[int]bool{}
	for _, n := range numbers {
		require.False(t, seen[n])
		seen[n] = true
	}

	// Fully allocated, no further quantity fits.
	_, err = domain.Allocate(ctx, &model.AllocateTicketsRequest{
		CompetitionID: competition.ID,
		OrderID:       "order-last",
		UserID:        "user",
		Quantity:      1,
	})
	require.Error(t, err)
	errx := errorx.Error{}
	require.True(t, errors.As(err, &errx))
	require.Equal(t, errorx.InsufficientCapacity, errx.Code)
}

// failingTicketRepo simulates the storage layer reporting a uniqueness
// violation on batch insert.
type failingTicketRepo struct {
	repository.TicketRepository
}

func (r *failingTicketRepo) CreateBatch(ctx context.Context, tickets []*entity.Ticket) error {
	return errors.New("UNIQUE constraint failed: tickets.competition_id, tickets.number")
}

func Test_ticketDomain_Allocate_conflict(t *testing.T) {
	ctx := testutil.MockContext()
	competition, err := testutil.SampleCompetition(ctx, &entity.Competition{MaxTickets: 10})
	require.NoError(t, err)

	domain := NewTicketDomain(
		&failingTicketRepo{repository.NewTicketRepository()},
		repository.NewCompetitionRepository())

	_, err = domain.Allocate(ctx, &model.AllocateTicketsRequest{
		CompetitionID: competition.ID,
		OrderID:       "order-1",
		UserID:        "user-1",
		Quantity:      3,
	})
	require.Error(t, err)
	errx := errorx.Error{}
	require.True(t, errors.As(err, &errx))
	require.Equal(t, errorx.AllocationConflict, errx.Code)

	// The whole batch for the order is gone.
	ticketRepo := repository.NewTicketRepository()
	count, err := ticketRepo.CountByOrderID(ctx, "order-1")
	require.NoError(t, err)
	require.Zero(t, count)
}

// brokenTicketRepo simulates an ordinary storage failure on batch insert,
// one that is not a uniqueness violation.
type brokenTicketRepo struct {
	repository.TicketRepository
}

func (r *brokenTicketRepo) CreateBatch(ctx context.Context, tickets []*entity.Ticket) error {
	return errors.New("driver: bad connection")
}

func Test_ticketDomain_Allocate_storageFailure(t *testing.T) {
	ctx := testutil.MockContext()
	competition, err := testutil.SampleCompetition(ctx, &entity.Competition{MaxTickets: 10})
	require.NoError(t, err)

	domain := NewTicketDomain(
		&brokenTicketRepo{repository.NewTicketRepository()},
		repository.NewCompetitionRepository())

	// A failure that is not a lost race must not tell the caller to retry
	// as if it were one.
	_, err = domain.Allocate(ctx, &model.AllocateTicketsRequest{
		CompetitionID: competition.ID,
		OrderID:       "order-1",
		UserID:        "user-1",
		Quantity:      3,
	})
	require.Error(t, err)
	errx := errorx.Error{}
	require.True(t, errors.As(err, &errx))
	require.Equal(t, errorx.Unknown, errx)
}

func Test_ticketDomain_Allocate_concurrent(t *testing.T) {
	ctx := testutil.MockContext()
	competition, err := testutil.SampleCompetition(ctx, &entity.Competition{MaxTickets: 30})
	require.NoError(t, err)

	domain := NewTicketDomain(
		repository.NewTicketRepository(), repository.NewCompetitionRepository())

	var group errgroup.Group
	for i := 0; i < 5; i++ {
		orderID := "order-" + string(rune('a'+i))
		group.Go(func() error {
			_, err := domain.Allocate(ctx, &model.AllocateTicketsRequest{
				CompetitionID: competition.ID,
				OrderID:       orderID,
				UserID:        "user",
				Quantity:      4,
			})

			// Racing allocations may lose and be told to retry, that is
			// part of the contract. Storage-level uniqueness is what must
			// hold afterwards.
			errx := errorx.Error{}
			if err != nil && errors.As(err, &errx) {
				return nil
			}

			return err
		})
	}
	require.NoError(t, group.Wait())

	numbers := []int{}
	tx := xcontext.DB(ctx).Model(&entity.Ticket{}).
		Where("competition_id=?", competition.ID).
		Pluck("number", &numbers)
	require.NoError(t, tx.Error)
	require.LessOrEqual(t, len(numbers), 30)

	seen := map[int]bool{}
	for _, n := range numbers {
		require.False(t, seen[n], "duplicate number %d", n)
		seen[n] = true
	}
}

func Test_ticketDomain_Allocate_notLive(t *testing.T) {
	ctx := testutil.MockContext()
	competition, err := testutil.SampleCompetition(ctx, &entity.Competition{
		MaxTickets: 10,
		Status:     entity.CompetitionDraft,
	})
	require.NoError(t, err)

	domain := NewTicketDomain(
		repository.NewTicketRepository(), repository.NewCompetitionRepository())

	_, err = domain.Allocate(ctx, &model.AllocateTicketsRequest{
		CompetitionID: competition.ID,
		OrderID:       "order-1",
		UserID:        "user-1",
		Quantity:      1,
	})
	require.Error(t, err)
	errx := errorx.Error{}
	require.True(t, errors.As(err, &errx))
	require.Equal(t, errorx.Unavailable, errx.Code)
}

func Test_ticketDomain_GetMyTickets(t *testing.T) {
	ctx := testutil.MockContext()
	first, err := testutil.SampleCompetition(ctx, &entity.Competition{MaxTickets: 20})
	require.NoError(t, err)
	second, err := testutil.SampleCompetition(ctx, &entity.Competition{MaxTickets: 20})
	require.NoError(t, err)
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	_, err = testutil.SampleTickets(ctx, first.ID, "order-1", user.ID, 3, 8)
	require.NoError(t, err)
	_, err = testutil.SampleTickets(ctx, second.ID, "order-2", user.ID, 5)
	require.NoError(t, err)

	domain := NewTicketDomain(
		repository.NewTicketRepository(), repository.NewCompetitionRepository())

	userCtx := xcontext.WithRequestUserID(ctx, user.ID)
	resp, err := domain.GetMyTickets(userCtx, &model.GetMyTicketsRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Tickets, 3)

	resp, err = domain.GetMyTickets(userCtx, &model.GetMyTicketsRequest{CompetitionID: first.ID})
	require.NoError(t, err)
	require.Len(t, resp.Tickets, 2)

	_, err = domain.GetMyTickets(ctx, &model.GetMyTicketsRequest{})
	require.Error(t, err)
}

func Test_ticketDomain_GetWinners(t *testing.T) {
	ctx := testutil.MockContext()
	competition, err := testutil.SampleCompetition(ctx, &entity.Competition{MaxTickets: 20})
	require.NoError(t, err)

	domain := NewTicketDomain(
		repository.NewTicketRepository(), repository.NewCompetitionRepository())

	// No winner yet.
	resp, err := domain.GetWinners(ctx, &model.GetWinnersRequest{CompetitionID: competition.ID})
	require.NoError(t, err)
	require.Empty(t, resp.Winners)

	_, err = testutil.SampleTickets(ctx, competition.ID, "order-1", "user-1", 4, 9)
	require.NoError(t, err)

	ticketRepo := repository.NewTicketRepository()
	require.NoError(t, ticketRepo.MarkWinner(ctx, competition.ID, 9))

	resp, err = domain.GetWinners(ctx, &model.GetWinnersRequest{CompetitionID: competition.ID})
	require.NoError(t, err)
	require.Len(t, resp.Winners, 1)
	require.Equal(t, 9, resp.Winners[0].Number)
	require.Equal(t, "user-1", resp.Winners[0].UserID)
}
