package domain

import (
	"context"
	"errors"

	"github.com/compdraw/backend/internal/model"
	"github.com/compdraw/backend/internal/repository"
	"github.com/compdraw/backend/pkg/errorx"
	"github.com/compdraw/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type OrderDomain interface {
	Confirm(context.Context, *model.ConfirmOrderRequest) (*model.ConfirmOrderResponse, error)
}

type orderDomain struct {
	ticketDomain     TicketDomain
	instantWinDomain InstantWinDomain
	qualifyingDomain QualifyingDomain
	ticketRepo       repository.TicketRepository
	competitionRepo  repository.CompetitionRepository
}

func NewOrderDomain(
	ticketDomain TicketDomain,
	instantWinDomain InstantWinDomain,
	qualifyingDomain QualifyingDomain,
	ticketRepo repository.TicketRepository,
	competitionRepo repository.CompetitionRepository,
) *orderDomain {
	return &orderDomain{
		ticketDomain:     ticketDomain,
		instantWinDomain: instantWinDomain,
		qualifyingDomain: qualifyingDomain,
		ticketRepo:       ticketRepo,
		competitionRepo:  competitionRepo,
	}
}

// Confirm settles a paid order. For each item it allocates tickets, bumps
// the sold counter, and resolves instant wins for the new numbers. A replay
// of an already-settled order returns its existing tickets instead of
// allocating again.
func (d *orderDomain) Confirm(
	ctx context.Context, req *model.ConfirmOrderRequest,
) (*model.ConfirmOrderResponse, error) {
	if req.OrderID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty order id")
	}

	if len(req.Items) == 0 {
		return nil, errorx.New(errorx.BadRequest, "The order has no items")
	}

	userID := req.UserID
	if userID == "" {
		userID = xcontext.RequestUserID(ctx)
	}

	count, err := d.ticketRepo.CountByOrderID(ctx, req.OrderID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count order tickets: %v", err)
		return nil, errorx.Unknown
	}

	if count > 0 {
		return d.existingResult(ctx, req.OrderID)
	}

	for _, item := range req.Items {
		qualified, err := d.qualifyingDomain.IsQualified(ctx, userID, item.CompetitionID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot check qualification: %v", err)
			return nil, errorx.Unknown
		}

		if !qualified {
			return nil, errorx.New(errorx.PermissionDenied,
				"The qualifying question must be answered before entering")
		}
	}

	results := []model.ConfirmOrderItemResult{}
	for _, item := range req.Items {
		allocated, err := d.ticketDomain.Allocate(ctx, &model.AllocateTicketsRequest{
			CompetitionID: item.CompetitionID,
			OrderID:       req.OrderID,
			UserID:        userID,
			Quantity:      item.Quantity,
		})
		if err != nil {
			return nil, err
		}

		err = d.competitionRepo.IncreaseSold(ctx, item.CompetitionID, item.Quantity)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.New(errorx.InsufficientCapacity,
					"Competition sold out while confirming the order")
			}

			xcontext.Logger(ctx).Errorf("Cannot increase sold counter: %v", err)
			return nil, errorx.Unknown
		}

		wins, err := d.instantWinDomain.CheckAllocated(ctx, &model.CheckInstantWinsRequest{
			CompetitionID: item.CompetitionID,
			OrderID:       req.OrderID,
		})
		if err != nil {
			return nil, err
		}

		results = append(results, model.ConfirmOrderItemResult{
			CompetitionID: item.CompetitionID,
			Numbers:       allocated.Numbers,
			InstantWins:   wins.Wins,
		})
	}

	return &model.ConfirmOrderResponse{Items: results}, nil
}

func (d *orderDomain) existingResult(
	ctx context.Context, orderID string,
) (*model.ConfirmOrderResponse, error) {
	tickets, err := d.ticketRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get order tickets: %v", err)
		return nil, errorx.Unknown
	}

	byCompetition := map[string][]int{}
	order := []string{}
	for _, ticket := range tickets {
		if _, ok := byCompetition[ticket.CompetitionID]; !ok {
			order = append(order, ticket.CompetitionID)
		}

		byCompetition[ticket.CompetitionID] = append(byCompetition[ticket.CompetitionID], ticket.Number)
	}

	results := []model.ConfirmOrderItemResult{}
	for _, competitionID := range order {
		results = append(results, model.ConfirmOrderItemResult{
			CompetitionID: competitionID,
			Numbers:       byCompetition[competitionID],
		})
	}

	return &model.ConfirmOrderResponse{Items: results}, nil
}
