package domain

import (
	"context"
	"errors"
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

const (
	// maxRolls bounds the roll sequence of a single draw.
	maxRolls = 10

	// fullRangeRolls is how many leading rolls sample the entire ticket
	// range, sold or not. Later rolls sample the sold set only, so the
	// draw always terminates within maxRolls.
	fullRangeRolls = 3
)

type DrawDomain interface {
	Execute(context.Context, *model.ExecuteDrawRequest) (*model.ExecuteDrawResponse, error)
	ForceRedraw(context.Context, *model.ForceRedrawRequest) (*model.ForceRedrawResponse, error)
	GetLatest(context.Context, *model.GetDrawRequest) (*model.GetDrawResponse, error)
	GetHistory(context.Context, *model.GetDrawHistoryRequest) (*model.GetDrawHistoryResponse, error)

	// ExecuteAuto runs a scheduled draw for a due competition.
	ExecuteAuto(ctx context.Context, competitionID string) error

	// ExecuteRetry re-runs a draw that previously exhausted its rolls. A
	// retry never schedules another retry.
	ExecuteRetry(ctx context.Context, competitionID string) error
}

type drawDomain struct {
	drawRepo        repository.DrawRepository
	drawRetryRepo   repository.DrawRetryRepository
	ticketRepo      repository.TicketRepository
	competitionRepo repository.CompetitionRepository
}

func NewDrawDomain(
	drawRepo repository.DrawRepository,
	drawRetryRepo repository.DrawRetryRepository,
	ticketRepo repository.TicketRepository,
	competitionRepo repository.CompetitionRepository,
) *drawDomain {
	return &drawDomain{
		drawRepo:        drawRepo,
		drawRetryRepo:   drawRetryRepo,
		ticketRepo:      ticketRepo,
		competitionRepo: competitionRepo,
	}
}

func (d *drawDomain) Execute(
	ctx context.Context, req *model.ExecuteDrawRequest,
) (*model.ExecuteDrawResponse, error) {
	draw, winner, err := d.execute(ctx, req.CompetitionID, entity.DrawModeManual, "", true)
	if err != nil {
		return nil, err
	}

	return &model.ExecuteDrawResponse{Draw: model.ConvertDraw(draw, winner)}, nil
}

func (d *drawDomain) ExecuteAuto(ctx context.Context, competitionID string) error {
	_, _, err := d.execute(ctx, competitionID, entity.DrawModeAuto, "", true)
	return err
}

func (d *drawDomain) ExecuteRetry(ctx context.Context, competitionID string) error {
	_, _, err := d.execute(ctx, competitionID, entity.DrawModeAuto, "", false)
	return err
}

// execute runs the full draw protocol for one competition. The reason is
// non-empty only for forced redraws. When allowRetry is false an exhausted
// draw is left in its failed state without scheduling another attempt.
func (d *drawDomain) execute(
	ctx context.Context,
	competitionID string,
	mode entity.DrawMode,
	forcedReason string,
	allowRetry bool,
) (*entity.Draw, *entity.Ticket, error) {
	forced := forcedReason != ""

	competition, err := d.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errorx.New(errorx.NotFound, "Not found competition")
		}

		xcontext.Logger(ctx).Errorf("Cannot get competition: %v", err)
		return nil, nil, errorx.Unknown
	}

	fromStatuses := []entity.CompetitionStatus{entity.CompetitionLive, entity.CompetitionSoldOut}
	switch {
	case forced:
		if competition.Status != entity.CompetitionDrawn {
			return nil, nil, errorx.New(errorx.NotEligible,
				"Only a drawn competition can be redrawn")
		}

		fromStatuses = []entity.CompetitionStatus{entity.CompetitionDrawn}

	case !allowRetry:
		if competition.Status != entity.CompetitionFailed {
			return nil, nil, errorx.New(errorx.NotEligible,
				"Competition is no longer waiting for a retry")
		}

		fromStatuses = []entity.CompetitionStatus{entity.CompetitionFailed}

	default:
		if !competition.CanDraw() {
			if competition.Status == entity.CompetitionDrawn {
				return nil, nil, errorx.New(errorx.AlreadyDrawn,
					"Competition has already been drawn")
			}

			if competition.MustSellOut && competition.TicketsRemaining() > 0 {
				return nil, nil, errorx.New(errorx.NotEligible,
					"Competition must sell out before it can be drawn")
			}

			return nil, nil, errorx.New(errorx.NotEligible,
				"Competition is not eligible for drawing")
		}
	}

	if !forced {
		completed, err := d.drawRepo.CountCompleted(ctx, competitionID, false)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot count completed draws: %v", err)
			return nil, nil, errorx.Unknown
		}

		if completed > 0 {
			return nil, nil, errorx.New(errorx.AlreadyDrawn,
				"Competition has already been drawn")
		}
	}

	// Claim the drawing slot with a conditional transition so two
	// concurrent calls cannot both start rolling.
	err = d.competitionRepo.TransitionStatus(
		ctx, competitionID, entity.CompetitionDrawing, fromStatuses...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errorx.New(errorx.AlreadyDrawn, "A draw is already in progress")
		}

		xcontext.Logger(ctx).Errorf("Cannot transition competition to drawing: %v", err)
		return nil, nil, errorx.Unknown
	}

	if forced {
		// History keeps the prior draw record, only the winner flag moves.
		if err := d.ticketRepo.ClearWinner(ctx, competitionID); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot clear previous winner: %v", err)
			d.revertStatus(ctx, competitionID, competition.Status)
			return nil, nil, errorx.Unknown
		}
	}

	seed, err := crypto.GenerateSeed()
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate seed: %v", err)
		d.revertStatus(ctx, competitionID, competition.Status)
		return nil, nil, errorx.Unknown
	}

	soldNumbers, err := d.ticketRepo.GetNumbers(ctx, competitionID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get sold numbers: %v", err)
		d.revertStatus(ctx, competitionID, competition.Status)
		return nil, nil, errorx.Unknown
	}

	draw := &entity.Draw{
		Base:               entity.Base{ID: uuid.NewString()},
		CompetitionID:      competitionID,
		DrawMode:           mode,
		Seed:               seed,
		SeedHash:           crypto.SHA256Hex(seed),
		Status:             entity.DrawRunning,
		ForcedRedraw:       forced,
		ForcedRedrawReason: forcedReason,
		StartedAt:          time.Now(),
	}

	if len(soldNumbers) == 0 {
		draw.Status = entity.DrawFailed
		draw.CompletedAt.Time = time.Now()
		draw.CompletedAt.Valid = true
		if err := d.drawRepo.Create(ctx, draw); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot record no-ticket draw: %v", err)
		}

		d.revertStatus(ctx, competitionID, competition.Status)
		return nil, nil, errorx.New(errorx.NoTickets, "No tickets have been sold")
	}

	// The hash commitment must be durable before the first roll so the
	// outcome cannot be chosen after the fact.
	if err := d.drawRepo.Create(ctx, draw); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create draw: %v", err)
		d.revertStatus(ctx, competitionID, competition.Status)
		return nil, nil, errorx.Unknown
	}

	soldSet := map[int]bool{}
	for _, n := range soldNumbers {
		soldSet[n] = true
	}

	rolls := []entity.Roll{}
	winningNumber := 0
	for i := 1; i <= maxRolls; i++ {
		var number int
		if i <= fullRangeRolls {
			number = crypto.RandRange(1, competition.MaxTickets+1)
		} else {
			number = soldNumbers[crypto.RandIntn(len(soldNumbers))]
		}

		roll := entity.Roll{
			RollNumber: i,
			Ticket:     number,
			IsSold:     soldSet[number],
			Timestamp:  time.Now(),
		}

		if soldSet[number] {
			roll.Result = entity.RollWinner
			rolls = append(rolls, roll)
			winningNumber = number
			break
		}

		roll.Result = entity.RollRejected
		roll.Message = "No sold ticket"
		rolls = append(rolls, roll)
	}

	if winningNumber == 0 {
		return nil, nil, d.failDraw(ctx, draw, competition, rolls, allowRetry)
	}

	winner, err := d.ticketRepo.GetByNumber(ctx, competitionID, winningNumber)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get winning ticket: %v", err)
		d.abortDraw(ctx, draw, rolls, competitionID, competition.Status)
		return nil, nil, errorx.Unknown
	}

	txCtx := xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(txCtx)

	if err := d.ticketRepo.MarkWinner(txCtx, competitionID, winningNumber); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot mark winning ticket: %v", err)
		xcontext.WithRollbackDBTransaction(txCtx)
		d.abortDraw(ctx, draw, rolls, competitionID, competition.Status)
		return nil, nil, errorx.Unknown
	}

	if err := d.drawRepo.Complete(txCtx, draw.ID, winner.ID, rolls); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot complete draw: %v", err)
		xcontext.WithRollbackDBTransaction(txCtx)
		d.abortDraw(ctx, draw, rolls, competitionID, competition.Status)
		return nil, nil, errorx.Unknown
	}

	err = d.competitionRepo.TransitionStatus(
		txCtx, competitionID, entity.CompetitionDrawn, entity.CompetitionDrawing)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot transition competition to drawn: %v", err)
		xcontext.WithRollbackDBTransaction(txCtx)
		d.abortDraw(ctx, draw, rolls, competitionID, competition.Status)
		return nil, nil, errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(txCtx)

	draw, err = d.drawRepo.GetByID(ctx, draw.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload draw: %v", err)
		return nil, nil, errorx.Unknown
	}

	winner.IsWinner = true
	return draw, winner, nil
}

func (d *drawDomain) failDraw(
	ctx context.Context,
	draw *entity.Draw,
	competition *entity.Competition,
	rolls []entity.Roll,
	allowRetry bool,
) error {
	if err := d.drawRepo.Fail(ctx, draw.ID, rolls); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot mark draw failed: %v", err)
		return errorx.Unknown
	}

	err := d.competitionRepo.TransitionStatus(
		ctx, competition.ID, entity.CompetitionFailed, entity.CompetitionDrawing)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot transition competition to failed: %v", err)
		return errorx.Unknown
	}

	if allowRetry && !draw.ForcedRedraw {
		retry := &entity.DrawRetry{
			Base:          entity.Base{ID: uuid.NewString()},
			CompetitionID: competition.ID,
			ExecuteAt:     time.Now().Add(xcontext.Configs(ctx).Draw.RetryDelay),
		}

		if err := d.drawRetryRepo.Create(ctx, retry); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot schedule draw retry: %v", err)
			return errorx.Unknown
		}
	}

	return errorx.New(errorx.DrawFailed, "Could not resolve a winner, the draw will be retried")
}

// abortDraw clears the half-finished state left behind when the outcome of
// a winning roll cannot be persisted: the draw record is marked failed and
// the competition returns to its pre-draw status so the draw can be rerun.
func (d *drawDomain) abortDraw(
	ctx context.Context,
	draw *entity.Draw,
	rolls []entity.Roll,
	competitionID string,
	previous entity.CompetitionStatus,
) {
	if err := d.drawRepo.Fail(ctx, draw.ID, rolls); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot mark draw failed: %v", err)
	}

	d.revertStatus(ctx, competitionID, previous)
}

func (d *drawDomain) revertStatus(
	ctx context.Context, competitionID string, previous entity.CompetitionStatus,
) {
	err := d.competitionRepo.TransitionStatus(
		ctx, competitionID, previous, entity.CompetitionDrawing)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot revert competition status: %v", err)
	}
}

func (d *drawDomain) ForceRedraw(
	ctx context.Context, req *model.ForceRedrawRequest,
) (*model.ForceRedrawResponse, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, errorx.New(errorx.ReasonRequired, "A public reason is required for a redraw")
	}

	draw, winner, err := d.execute(ctx, req.CompetitionID, entity.DrawModeManual, reason, true)
	if err != nil {
		return nil, err
	}

	return &model.ForceRedrawResponse{Draw: model.ConvertDraw(draw, winner)}, nil
}

func (d *drawDomain) GetLatest(
	ctx context.Context, req *model.GetDrawRequest,
) (*model.GetDrawResponse, error) {
	draw, err := d.drawRepo.GetLatestByCompetitionID(ctx, req.CompetitionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found draw")
		}

		xcontext.Logger(ctx).Errorf("Cannot get latest draw: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetDrawResponse{Draw: model.ConvertDraw(draw, d.winnerOf(ctx, draw))}, nil
}

func (d *drawDomain) GetHistory(
	ctx context.Context, req *model.GetDrawHistoryRequest,
) (*model.GetDrawHistoryResponse, error) {
	draws, err := d.drawRepo.GetHistoryByCompetitionID(ctx, req.CompetitionID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get draw history: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.Draw{}
	for i := range draws {
		result = append(result, model.ConvertDraw(&draws[i], d.winnerOf(ctx, &draws[i])))
	}

	return &model.GetDrawHistoryResponse{Draws: result}, nil
}

func (d *drawDomain) winnerOf(ctx context.Context, draw *entity.Draw) *entity.Ticket {
	if !draw.WinningTicketID.Valid || draw.WinningTicketID.String == "" {
		return nil
	}

	for _, roll := range draw.Rolls {
		if roll.Result == entity.RollWinner {
			winner, err := d.ticketRepo.GetByNumber(ctx, draw.CompetitionID, roll.Ticket)
			if err != nil {
				xcontext.Logger(ctx).Warnf("Cannot resolve winning ticket: %v", err)
				return nil
			}

			return winner
		}
	}

	return nil
}
