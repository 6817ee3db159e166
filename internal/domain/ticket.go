package domain

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/compdraw/backend/internal/entity"
	"github.com/compdraw/backend/internal/model"
	"github.com/compdraw/backend/internal/repository"
	"github.com/compdraw/backend/pkg/crypto"
	"github.com/compdraw/backend/pkg/errorx"
	"github.com/compdraw/backend/pkg/xcontext"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketDomain interface {
	Allocate(context.Context, *model.AllocateTicketsRequest) (*model.AllocateTicketsResponse, error)
	GetMyTickets(context.Context, *model.GetMyTicketsRequest) (*model.GetMyTicketsResponse, error)
	GetWinners(context.Context, *model.GetWinnersRequest) (*model.GetWinnersResponse, error)
}

type ticketDomain struct {
	ticketRepo      repository.TicketRepository
	competitionRepo repository.CompetitionRepository
}

func NewTicketDomain(
	ticketRepo repository.TicketRepository,
	competitionRepo repository.CompetitionRepository,
) *ticketDomain {
	return &ticketDomain{
		ticketRepo:      ticketRepo,
		competitionRepo: competitionRepo,
	}
}

// Allocate assigns quantity unique random ticket numbers within the
// competition capacity. The available pool is computed against a snapshot,
// so two concurrent allocations can race for the same number. The unique
// index on (competition_id, number) catches the loser, whose whole batch is
// removed and who receives a conflict error to retry with fresh data.
func (d *ticketDomain) Allocate(
	ctx context.Context, req *model.AllocateTicketsRequest,
) (*model.AllocateTicketsResponse, error) {
	if req.Quantity <= 0 {
		return nil, errorx.New(errorx.BadRequest, "The quantity must be a positive number")
	}

	if req.OrderID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty order id")
	}

	userID := req.UserID
	if userID == "" {
		userID = xcontext.RequestUserID(ctx)
	}

	competition, err := d.competitionRepo.GetByID(ctx, req.CompetitionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found competition")
		}

		xcontext.Logger(ctx).Errorf("Cannot get competition: %v", err)
		return nil, errorx.Unknown
	}

	if competition.MaxTickets <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Competition has no capacity configured")
	}

	if competition.Status != entity.CompetitionLive {
		return nil, errorx.New(errorx.Unavailable, "Competition is not open for entries")
	}

	taken, err := d.ticketRepo.GetNumbers(ctx, req.CompetitionID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get allocated numbers: %v", err)
		return nil, errorx.Unknown
	}

	takenSet := map[int]bool{}
	for _, n := range taken {
		takenSet[n] = true
	}

	pool := make([]int, 0, competition.MaxTickets-len(taken))
	for n := 1; n <= competition.MaxTickets; n++ {
		if !takenSet[n] {
			pool = append(pool, n)
		}
	}

	if len(pool) < req.Quantity {
		return nil, errorx.New(errorx.InsufficientCapacity,
			"Only %d tickets remaining", len(pool))
	}

	numbers := crypto.SampleWithoutReplacement(pool, req.Quantity)
	sort.Ints(numbers)

	now := time.Now()
	tickets := make([]*entity.Ticket, 0, len(numbers))
	for _, n := range numbers {
		tickets = append(tickets, &entity.Ticket{
			Base:          entity.Base{ID: uuid.NewString()},
			CompetitionID: req.CompetitionID,
			OrderID:       req.OrderID,
			UserID:        userID,
			Number:        n,
			AllocatedAt:   now,
		})
	}

	txCtx := xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(txCtx)

	if err := d.ticketRepo.CreateBatch(txCtx, tickets); err != nil {
		xcontext.WithRollbackDBTransaction(txCtx)

		if !isDuplicateKey(err) {
			xcontext.Logger(ctx).Errorf("Cannot create tickets: %v", err)
			return nil, errorx.Unknown
		}

		xcontext.Logger(ctx).Warnf("Allocation batch collided, rolling back order %s: %v",
			req.OrderID, err)

		// Remove every number this order took for the competition so the
		// caller can retry the whole batch against fresh availability.
		if err := d.ticketRepo.DeleteByOrderAndCompetition(ctx, req.OrderID, req.CompetitionID); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot clean up conflicting batch: %v", err)
			return nil, errorx.Unknown
		}

		return nil, errorx.New(errorx.AllocationConflict,
			"Ticket numbers were taken by another order, please retry")
	}

	xcontext.WithCommitDBTransaction(txCtx)

	return &model.AllocateTicketsResponse{Numbers: numbers}, nil
}

// isDuplicateKey reports whether err is the unique-index violation raised
// when another order took one of the chosen numbers first. Anything else is
// an ordinary storage failure, not a losable race.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key")
}

func (d *ticketDomain) GetWinners(
	ctx context.Context, req *model.GetWinnersRequest,
) (*model.GetWinnersResponse, error) {
	winner, err := d.ticketRepo.GetWinner(ctx, req.CompetitionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.GetWinnersResponse{Winners: []model.Winner{}}, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get winner: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetWinnersResponse{Winners: []model.Winner{
		{
			CompetitionID: winner.CompetitionID,
			Number:        winner.Number,
			UserID:        winner.UserID,
		},
	}}, nil
}

func (d *ticketDomain) GetMyTickets(
	ctx context.Context, req *model.GetMyTicketsRequest,
) (*model.GetMyTicketsResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	if userID == "" {
		return nil, errorx.New(errorx.Unauthenticated, "Require authentication")
	}

	tickets, err := d.ticketRepo.GetByUserID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get tickets: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.Ticket{}
	for i := range tickets {
		if req.CompetitionID != "" && tickets[i].CompetitionID != req.CompetitionID {
			continue
		}

		result = append(result, model.ConvertTicket(&tickets[i]))
	}

	return &model.GetMyTicketsResponse{Tickets: result}, nil
}
