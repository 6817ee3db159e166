package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/compdraw/backend/internal/entity"
	"github.com/compdraw/backend/internal/model"
	"github.com/compdraw/backend/internal/repository"
	"github.com/compdraw/backend/pkg/enum"
	"github.com/compdraw/backend/pkg/errorx"
	"github.com/compdraw/backend/pkg/xcontext"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompetitionDomain interface {
	Create(context.Context, *model.CreateCompetitionRequest) (*model.CreateCompetitionResponse, error)
	Get(context.Context, *model.GetCompetitionRequest) (*model.GetCompetitionResponse, error)
	GetList(context.Context, *model.GetListCompetitionRequest) (*model.GetListCompetitionResponse, error)
	SetStatus(context.Context, *model.SetCompetitionStatusRequest) (*model.SetCompetitionStatusResponse, error)
	GetTicketsRemaining(context.Context, *model.GetTicketsRemainingRequest) (*model.GetTicketsRemainingResponse, error)
}

type competitionDomain struct {
	competitionRepo repository.CompetitionRepository
}

func NewCompetitionDomain(competitionRepo repository.CompetitionRepository) *competitionDomain {
	return &competitionDomain{competitionRepo: competitionRepo}
}

// allowedStatusTransitions is the competition lifecycle. Terminal states
// have no outgoing edges.
var allowedStatusTransitions = map[entity.CompetitionStatus][]entity.CompetitionStatus{
	entity.CompetitionDraft:   {entity.CompetitionLive, entity.CompetitionCancelled},
	entity.CompetitionLive:    {entity.CompetitionPaused, entity.CompetitionSoldOut, entity.CompetitionCancelled},
	entity.CompetitionPaused:  {entity.CompetitionLive, entity.CompetitionCancelled},
	entity.CompetitionSoldOut: {entity.CompetitionCancelled},
	entity.CompetitionFailed:  {entity.CompetitionLive, entity.CompetitionCancelled},
}

func (d *competitionDomain) Create(
	ctx context.Context, req *model.CreateCompetitionRequest,
) (*model.CreateCompetitionResponse, error) {
	if req.Title == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty title")
	}

	if req.MaxTickets <= 0 {
		return nil, errorx.New(errorx.BadRequest, "The max number of tickets must be a positive number")
	}

	if req.InstantWinsCount < 0 || req.InstantWinsCount > req.MaxTickets {
		return nil, errorx.New(errorx.BadRequest, "Invalid number of instant wins")
	}

	drawMode, err := enum.ToEnum[entity.DrawMode](req.DrawMode)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid draw mode %s", req.DrawMode)
	}

	if drawMode == entity.DrawModeAuto && req.DrawAt.Before(time.Now()) {
		return nil, errorx.New(errorx.BadRequest, "Draw time of an automatic draw must be in the future")
	}

	slug := req.Slug
	if slug == "" {
		slug = generateSlug(req.Title)
	}

	competition := &entity.Competition{
		Base:             entity.Base{ID: uuid.NewString()},
		Title:            req.Title,
		Slug:             slug,
		Description:      req.Description,
		MaxTickets:       req.MaxTickets,
		Price:            req.Price,
		DrawAt:           req.DrawAt,
		DrawMode:         drawMode,
		MustSellOut:      req.MustSellOut,
		InstantWinsCount: req.InstantWinsCount,
		Status:           entity.CompetitionDraft,
	}

	if err := d.competitionRepo.Create(ctx, competition); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create competition: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateCompetitionResponse{ID: competition.ID}, nil
}

func (d *competitionDomain) Get(
	ctx context.Context, req *model.GetCompetitionRequest,
) (*model.GetCompetitionResponse, error) {
	var competition *entity.Competition
	var err error
	switch {
	case req.ID != "":
		competition, err = d.competitionRepo.GetByID(ctx, req.ID)
	case req.Slug != "":
		competition, err = d.competitionRepo.GetBySlug(ctx, req.Slug)
	default:
		return nil, errorx.New(errorx.BadRequest, "Require either an id or a slug")
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found competition")
		}

		xcontext.Logger(ctx).Errorf("Cannot get competition: %v", err)
		return nil, errorx.Unknown
	}

	resp := model.GetCompetitionResponse(model.ConvertCompetition(competition))
	return &resp, nil
}

func (d *competitionDomain) GetList(
	ctx context.Context, req *model.GetListCompetitionRequest,
) (*model.GetListCompetitionResponse, error) {
	var statuses []entity.CompetitionStatus
	if req.Statuses != "" {
		for _, s := range strings.Split(req.Statuses, ",") {
			status, err := enum.ToEnum[entity.CompetitionStatus](strings.TrimSpace(s))
			if err != nil {
				return nil, errorx.New(errorx.BadRequest, "Invalid status %s", s)
			}

			statuses = append(statuses, status)
		}
	} else {
		statuses = []entity.CompetitionStatus{
			entity.CompetitionLive,
			entity.CompetitionSoldOut,
			entity.CompetitionDrawing,
			entity.CompetitionDrawn,
		}
	}

	competitions, err := d.competitionRepo.GetByStatuses(ctx, statuses...)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get competitions: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.Competition{}
	for i := range competitions {
		result = append(result, model.ConvertCompetition(&competitions[i]))
	}

	return &model.GetListCompetitionResponse{Competitions: result}, nil
}

func (d *competitionDomain) SetStatus(
	ctx context.Context, req *model.SetCompetitionStatusRequest,
) (*model.SetCompetitionStatusResponse, error) {
	to, err := enum.ToEnum[entity.CompetitionStatus](req.Status)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid status %s", req.Status)
	}

	competition, err := d.competitionRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found competition")
		}

		xcontext.Logger(ctx).Errorf("Cannot get competition: %v", err)
		return nil, errorx.Unknown
	}

	allowed := false
	for _, next := range allowedStatusTransitions[competition.Status] {
		if next == to {
			allowed = true
			break
		}
	}

	if !allowed {
		return nil, errorx.New(errorx.BadRequest,
			"Cannot change status from %s to %s", competition.Status, to)
	}

	err = d.competitionRepo.TransitionStatus(ctx, req.ID, to, competition.Status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.BadRequest, "Competition status has changed, try again")
		}

		xcontext.Logger(ctx).Errorf("Cannot change competition status: %v", err)
		return nil, errorx.Unknown
	}

	return &model.SetCompetitionStatusResponse{}, nil
}

func (d *competitionDomain) GetTicketsRemaining(
	ctx context.Context, req *model.GetTicketsRemainingRequest,
) (*model.GetTicketsRemainingResponse, error) {
	competition, err := d.competitionRepo.GetByID(ctx, req.CompetitionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found competition")
		}

		xcontext.Logger(ctx).Errorf("Cannot get competition: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetTicketsRemainingResponse{
		TicketsRemaining: competition.TicketsRemaining(),
	}, nil
}

func generateSlug(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
