package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/compdraw/backend/internal/entity"
	"github.com/compdraw/backend/internal/model"
	"github.com/compdraw/backend/internal/repository"
	"github.com/compdraw/backend/pkg/errorx"
	"github.com/compdraw/backend/pkg/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newOrderDomainForTest(redisClient *testutil.MockRedisClient) *orderDomain {
	ticketRepo := repository.NewTicketRepository()
	competitionRepo := repository.NewCompetitionRepository()

	return NewOrderDomain(
		NewTicketDomain(ticketRepo, competitionRepo),
		newInstantWinDomainForTest(),
		newQualifyingDomainForTest(redisClient),
		ticketRepo,
		competitionRepo,
	)
}

func markQualified(
	ctx context.Context, redisClient *testutil.MockRedisClient, userID, competitionID string,
) error {
	return redisClient.SetTTL(ctx, qualifiedKey(userID, competitionID), "1", time.Hour)
}

func Test_orderDomain_Confirm(t *testing.T) {
	ctx := testutil.MockContext()
	competition, err := testutil.SampleCompetition(ctx, &entity.Competition{MaxTickets: 50})
	require.NoError(t, err)
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	redisClient := testutil.NewMockRedisClient()
	require.NoError(t, markQualified(ctx, redisClient, user.ID, competition.ID))

	// One instant win placed on a known number so a matching allocation can
	// be observed either way.
	instantWinRepo := repository.NewInstantWinRepository()
	err = instantWinRepo.CreateBatch(ctx, []*entity.InstantWin{{
		Base:          entity.Base{ID: uuid.NewString()},
		CompetitionID: competition.ID,
		TicketNumber:  1,
		PrizeType:     entity.PrizeCredit,
		PrizeValue:    5.00,
		PrizeLabel:    "£5 Site Credit",
	}})
	require.NoError(t, err)

	domain := newOrderDomainForTest(redisClient)
	resp, err := domain.Confirm(ctx, &model.ConfirmOrderRequest{
		OrderID: "order-1",
		UserID:  user.ID,
		Items:   []model.OrderItem{{CompetitionID: competition.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.Len(t, resp.Items[0].Numbers, 3)

	hasNumberOne := false
	for _, n := range resp.Items[0].Numbers {
		if n == 1 {
			hasNumberOne = true
		}
	}
	if hasNumberOne {
		require.Len(t, resp.Items[0].InstantWins, 1)
		require.Equal(t, 1, resp.Items[0].InstantWins[0].Number)
	} else {
		require.Empty(t, resp.Items[0].InstantWins)
	}

	// The sold counter moves with the allocation.
	competitionRepo := repository.NewCompetitionRepository()
	reloaded, err := competitionRepo.GetByID(ctx, competition.ID)
	require.NoError(t, err)
	require.Equal(t, 3, reloaded.TicketsSold)

	// A replay returns the same numbers without allocating again.
	replay, err := domain.Confirm(ctx, &model.ConfirmOrderRequest{
		OrderID: "order-1",
		UserID:  user.ID,
		Items:   []model.OrderItem{{CompetitionID: competition.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	require.Len(t, replay.Items, 1)
	require.ElementsMatch(t, resp.Items[0].Numbers, replay.Items[0].Numbers)

	reloaded, err = competitionRepo.GetByID(ctx, competition.ID)
	require.NoError(t, err)
	require.Equal(t, 3, reloaded.TicketsSold)
}

func Test_orderDomain_Confirm_notQualified(t *testing.T) {
	ctx := testutil.MockContext()
	competition, err := testutil.SampleCompetition(ctx, &entity.Competition{MaxTickets: 50})
	require.NoError(t, err)
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	domain := newOrderDomainForTest(testutil.NewMockRedisClient())
	_, err = domain.Confirm(ctx, &model.ConfirmOrderRequest{
		OrderID: "order-1",
		UserID:  user.ID,
		Items:   []model.OrderItem{{CompetitionID: competition.ID, Quantity: 1}},
	})
	require.Error(t, err)
	errx := errorx.Error{}
	require.True(t, errors.As(err, &errx))
	require.Equal(t, errorx.PermissionDenied, errx.Code)

	// Nothing was allocated.
	ticketRepo := repository.NewTicketRepository()
	count, err := ticketRepo.CountByOrderID(ctx, "order-1")
	require.NoError(t, err)
	require.Zero(t, count)
}

func Test_orderDomain_Confirm_soldOutBoundary(t *testing.T) {
	ctx := testutil.MockContext()
	competition, err := testutil.SampleCompetition(ctx, &entity.Competition{MaxTickets: 5})
	require.NoError(t, err)
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	redisClient := testutil.NewMockRedisClient()
	require.NoError(t, markQualified(ctx, redisClient, user.ID, competition.ID))

	domain := newOrderDomainForTest(redisClient)
	_, err = domain.Confirm(ctx, &model.ConfirmOrderRequest{
		OrderID: "order-1",
		UserID:  user.ID,
		Items:   []model.OrderItem{{CompetitionID: competition.ID, Quantity: 5}},
	})
	require.NoError(t, err)

	// Taking the last ticket flips the competition to sold out.
	competitionRepo := repository.NewCompetitionRepository()
	reloaded, err := competitionRepo.GetByID(ctx, competition.ID)
	require.NoError(t, err)
	require.Equal(t, entity.CompetitionSoldOut, reloaded.Status)
	require.Equal(t, 5, reloaded.TicketsSold)

	_, err = domain.Confirm(ctx, &model.ConfirmOrderRequest{
		OrderID: "order-2",
		UserID:  user.ID,
		Items:   []model.OrderItem{{CompetitionID: competition.ID, Quantity: 1}},
	})
	require.Error(t, err)
}

func Test_orderDomain_Confirm_validation(t *testing.T) {
	ctx := testutil.MockContext()
	domain := newOrderDomainForTest(testutil.NewMockRedisClient())

	_, err := domain.Confirm(ctx, &model.ConfirmOrderRequest{
		Items: []model.OrderItem{{CompetitionID: uuid.NewString(), Quantity: 1}},
	})
	require.Error(t, err)

	_, err = domain.Confirm(ctx, &model.ConfirmOrderRequest{OrderID: "order-1"})
	require.Error(t, err)
}
