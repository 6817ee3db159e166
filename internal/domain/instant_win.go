package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/compdraw/backend/internal/entity"
	"github.com/compdraw/backend/internal/model"
	"github.com/compdraw/backend/internal/repository"
	"github.com/compdraw/backend/pkg/crypto"
	"github.com/compdraw/backend/pkg/enum"
	"github.com/compdraw/backend/pkg/errorx"
	"github.com/compdraw/backend/pkg/xcontext"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const couponCodeLength = 12

// defaultInstantWinPrize is attached to generated entries when no explicit
// prize list is configured.
var defaultInstantWinPrize = model.InstantWinPrize{
	Type:  string(entity.PrizeCredit),
	Value: 5.00,
	Label: "£5 Site Credit",
}

type InstantWinDomain interface {
	Generate(context.Context, *model.GenerateInstantWinsRequest) (*model.GenerateInstantWinsResponse, error)
	CheckAllocated(context.Context, *model.CheckInstantWinsRequest) (*model.CheckInstantWinsResponse, error)
	GetMyWins(context.Context, *model.GetMyInstantWinsRequest) (*model.GetMyInstantWinsResponse, error)
	GetCompetitionWins(context.Context, *model.GetCompetitionInstantWinsRequest) (*model.GetCompetitionInstantWinsResponse, error)
}

type instantWinDomain struct {
	instantWinRepo  repository.InstantWinRepository
	ticketRepo      repository.TicketRepository
	competitionRepo repository.CompetitionRepository
	userRepo        repository.UserRepository
	couponRepo      repository.CouponRepository
	payoutRepo      repository.PrizePayoutRepository
}

func NewInstantWinDomain(
	instantWinRepo repository.InstantWinRepository,
	ticketRepo repository.TicketRepository,
	competitionRepo repository.CompetitionRepository,
	userRepo repository.UserRepository,
	couponRepo repository.CouponRepository,
	payoutRepo repository.PrizePayoutRepository,
) *instantWinDomain {
	return &instantWinDomain{
		instantWinRepo:  instantWinRepo,
		ticketRepo:      ticketRepo,
		competitionRepo: competitionRepo,
		userRepo:        userRepo,
		couponRepo:      couponRepo,
		payoutRepo:      payoutRepo,
	}
}

// Generate rebuilds the instant-win map for a competition. Claimed entries
// are paid-out prizes and are never replaced, only the unclaimed remainder
// is regenerated.
func (d *instantWinDomain) Generate(
	ctx context.Context, req *model.GenerateInstantWinsRequest,
) (*model.GenerateInstantWinsResponse, error) {
	if req.Count <= 0 {
		return nil, errorx.New(errorx.BadRequest, "The count must be a positive number")
	}

	competition, err := d.competitionRepo.GetByID(ctx, req.CompetitionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found competition")
		}

		xcontext.Logger(ctx).Errorf("Cannot get competition: %v", err)
		return nil, errorx.Unknown
	}

	prizes := req.Prizes
	if len(prizes) == 0 {
		prizes = []model.InstantWinPrize{defaultInstantWinPrize}
	}

	for _, prize := range prizes {
		if _, err := enum.ToEnum[entity.PrizeType](prize.Type); err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid prize type %s", prize.Type)
		}
	}

	claimed, err := d.instantWinRepo.GetClaimedNumbers(ctx, req.CompetitionID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get claimed numbers: %v", err)
		return nil, errorx.Unknown
	}

	claimedSet := map[int]bool{}
	for _, n := range claimed {
		claimedSet[n] = true
	}

	pool := make([]int, 0, competition.MaxTickets)
	for n := 1; n <= competition.MaxTickets; n++ {
		if !claimedSet[n] {
			pool = append(pool, n)
		}
	}

	if len(pool) < req.Count {
		return nil, errorx.New(errorx.BadRequest,
			"Cannot place %d instant wins, only %d numbers available", req.Count, len(pool))
	}

	numbers := crypto.SampleWithoutReplacement(pool, req.Count)

	entries := make([]*entity.InstantWin, 0, len(numbers))
	for i, n := range numbers {
		prize := prizes[i%len(prizes)]
		entries = append(entries, &entity.InstantWin{
			Base:          entity.Base{ID: uuid.NewString()},
			CompetitionID: req.CompetitionID,
			TicketNumber:  n,
			PrizeType:     entity.PrizeType(prize.Type),
			PrizeValue:    prize.Value,
			PrizeLabel:    prize.Label,
		})
	}

	txCtx := xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(txCtx)

	if err := d.instantWinRepo.DeleteUnclaimed(txCtx, req.CompetitionID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete unclaimed entries: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.instantWinRepo.CreateBatch(txCtx, entries); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create instant win entries: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(txCtx)

	return &model.GenerateInstantWinsResponse{Count: len(entries)}, nil
}

// CheckAllocated resolves instant wins for every ticket of an order. It is
// idempotent against replays, the conditional claim update makes sure each
// entry pays out once.
func (d *instantWinDomain) CheckAllocated(
	ctx context.Context, req *model.CheckInstantWinsRequest,
) (*model.CheckInstantWinsResponse, error) {
	tickets, err := d.ticketRepo.GetByOrderID(ctx, req.OrderID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get order tickets: %v", err)
		return nil, errorx.Unknown
	}

	wins := []model.InstantWinResult{}
	for i := range tickets {
		ticket := &tickets[i]
		if req.CompetitionID != "" && ticket.CompetitionID != req.CompetitionID {
			continue
		}

		entry, err := d.instantWinRepo.GetUnclaimedByNumber(ctx, ticket.CompetitionID, ticket.Number)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}

			xcontext.Logger(ctx).Errorf("Cannot look up instant win: %v", err)
			return nil, errorx.Unknown
		}

		win, err := d.claim(ctx, entry, ticket)
		if err != nil {
			return nil, err
		}

		if win != nil {
			wins = append(wins, *win)
		}
	}

	return &model.CheckInstantWinsResponse{Wins: wins}, nil
}

func (d *instantWinDomain) claim(
	ctx context.Context, entry *entity.InstantWin, ticket *entity.Ticket,
) (*model.InstantWinResult, error) {
	txCtx := xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(txCtx)

	if err := d.instantWinRepo.Claim(txCtx, entry.ID, ticket.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Someone else claimed it between lookup and update.
			return nil, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot claim instant win: %v", err)
		return nil, errorx.Unknown
	}

	err := d.ticketRepo.MarkInstantWin(
		txCtx, ticket.ID, entry.PrizeType, entry.PrizeValue, entry.PrizeLabel)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot mark instant win ticket: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.fulfill(txCtx, entry, ticket); err != nil {
		return nil, err
	}

	xcontext.WithCommitDBTransaction(txCtx)

	return &model.InstantWinResult{
		Number: ticket.Number,
		Prize: model.InstantWinPrize{
			Type:  string(entry.PrizeType),
			Value: entry.PrizeValue,
			Label: entry.PrizeLabel,
		},
	}, nil
}

// fulfill dispatches on the prize kind. Credit and coupon prizes settle
// synchronously, cash and physical prizes queue a manual payout.
func (d *instantWinDomain) fulfill(
	ctx context.Context, entry *entity.InstantWin, ticket *entity.Ticket,
) error {
	switch entry.PrizeType {
	case entity.PrizeCredit:
		if err := d.userRepo.IncreaseCredit(ctx, ticket.UserID, entry.PrizeValue); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot credit user: %v", err)
			return errorx.Unknown
		}

	case entity.PrizeCoupon:
		coupon := &entity.Coupon{
			Base:        entity.Base{ID: uuid.NewString()},
			Code:        crypto.GenerateCouponCode(couponCodeLength),
			UserID:      ticket.UserID,
			Amount:      entry.PrizeValue,
			Description: entry.PrizeLabel,
		}

		if err := d.couponRepo.Create(ctx, coupon); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create coupon: %v", err)
			return errorx.Unknown
		}

	case entity.PrizeCash, entity.PrizePhysical:
		payout := &entity.PrizePayout{
			Base:          entity.Base{ID: uuid.NewString()},
			CompetitionID: entry.CompetitionID,
			TicketNumber:  entry.TicketNumber,
			UserID:        ticket.UserID,
			PrizeType:     entry.PrizeType,
			PrizeValue:    entry.PrizeValue,
			PrizeLabel:    entry.PrizeLabel,
			Status:        entity.PayoutPending,
		}

		if err := d.payoutRepo.Create(ctx, payout); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot queue prize payout: %v", err)
			return errorx.Unknown
		}

	default:
		xcontext.Logger(ctx).Errorf("Unknown prize type %s", entry.PrizeType)
		return errorx.Unknown
	}

	return nil
}

func (d *instantWinDomain) GetMyWins(
	ctx context.Context, req *model.GetMyInstantWinsRequest,
) (*model.GetMyInstantWinsResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	if userID == "" {
		return nil, errorx.New(errorx.Unauthenticated, "Require authentication")
	}

	entries, err := d.instantWinRepo.GetByClaimedUserID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get instant wins: %v", err)
		return nil, errorx.Unknown
	}

	wins := []model.InstantWinResult{}
	for _, entry := range entries {
		wins = append(wins, model.InstantWinResult{
			Number: entry.TicketNumber,
			Prize: model.InstantWinPrize{
				Type:  string(entry.PrizeType),
				Value: entry.PrizeValue,
				Label: entry.PrizeLabel,
			},
		})
	}

	return &model.GetMyInstantWinsResponse{Wins: wins}, nil
}

// GetCompetitionWins lists the claimed instant wins of a competition for
// public display. Winner names are shortened to first name plus the initial
// of the last.
func (d *instantWinDomain) GetCompetitionWins(
	ctx context.Context, req *model.GetCompetitionInstantWinsRequest,
) (*model.GetCompetitionInstantWinsResponse, error) {
	entries, err := d.instantWinRepo.GetByCompetitionID(ctx, req.CompetitionID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get instant wins: %v", err)
		return nil, errorx.Unknown
	}

	wins := []model.CompetitionInstantWin{}
	for _, entry := range entries {
		if !entry.Claimed {
			continue
		}

		win := model.CompetitionInstantWin{
			Number: entry.TicketNumber,
			Prize: model.InstantWinPrize{
				Type:  string(entry.PrizeType),
				Value: entry.PrizeValue,
				Label: entry.PrizeLabel,
			},
		}

		if entry.ClaimedAt.Valid {
			win.ClaimedAt = entry.ClaimedAt.Time.Format(model.DefaultTimeLayout)
		}

		winner, err := d.userRepo.GetByID(ctx, entry.ClaimedByUserID)
		if err == nil {
			win.WinnerName = obfuscateName(winner.Name)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get winner: %v", err)
			return nil, errorx.Unknown
		}

		wins = append(wins, win)
	}

	return &model.GetCompetitionInstantWinsResponse{Wins: wins}, nil
}

func obfuscateName(name string) string {
	parts := strings.Fields(name)
	if len(parts) <= 1 {
		return name
	}

	last := []rune(parts[len(parts)-1])
	return parts[0] + " " + string(last[0]) + "."
}
