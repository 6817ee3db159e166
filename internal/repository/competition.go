package repository

import (
	"context"
	"time"

	"github.com/compdraw/backend/internal/entity"
	"github.com/compdraw/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type CompetitionRepository interface {
	Create(ctx context.Context, competition *entity.Competition) error
	GetByID(ctx context.Context, id string) (*entity.Competition, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Competition, error)
	GetByStatuses(ctx context.Context, statuses ...entity.CompetitionStatus) ([]entity.Competition, error)
	GetDueForAutoDraw(ctx context.Context, now time.Time) ([]entity.Competition, error)

	// TransitionStatus moves a competition from any of the given statuses to
	// the target status as a single conditional update. It returns
	// gorm.ErrRecordNotFound if the competition was not in an allowed status,
	// which makes the check-and-transition race free.
	TransitionStatus(ctx context.Context, id string, to entity.CompetitionStatus, from ...entity.CompetitionStatus) error

	// IncreaseSold adds count to the sold counter, refusing to exceed the
	// capacity, and flips the status to sold_out in the same statement when
	// the boundary is reached.
	IncreaseSold(ctx context.Context, id string, count int) error
}

type competitionRepository struct{}

func NewCompetitionRepository() *competitionRepository {
	return &competitionRepository{}
}

func (r *competitionRepository) Create(ctx context.Context, competition *entity.Competition) error {
	return xcontext.DB(ctx).Create(competition).Error
}

func (r *competitionRepository) GetByID(ctx context.Context, id string) (*entity.Competition, error) {
	var result entity.Competition
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *competitionRepository) GetBySlug(ctx context.Context, slug string) (*entity.Competition, error) {
	var result entity.Competition
	if err := xcontext.DB(ctx).Take(&result, "slug=?", slug).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *competitionRepository) GetByStatuses(
	ctx context.Context, statuses ...entity.CompetitionStatus,
) ([]entity.Competition, error) {
	var result []entity.Competition
	err := xcontext.DB(ctx).
		Where("status IN (?)", statuses).
		Order("draw_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *competitionRepository) GetDueForAutoDraw(
	ctx context.Context, now time.Time,
) ([]entity.Competition, error) {
	var result []entity.Competition
	err := xcontext.DB(ctx).
		Where("status IN (?) AND draw_mode=? AND draw_at <= ?",
			[]entity.CompetitionStatus{entity.CompetitionLive, entity.CompetitionSoldOut},
			entity.DrawModeAuto, now).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *competitionRepository) TransitionStatus(
	ctx context.Context,
	id string,
	to entity.CompetitionStatus,
	from ...entity.CompetitionStatus,
) error {
	tx := xcontext.DB(ctx).Model(&entity.Competition{}).
		Where("id=? AND status IN (?)", id, from).
		Update("status", to)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *competitionRepository) IncreaseSold(ctx context.Context, id string, count int) error {
	tx := xcontext.DB(ctx).Model(&entity.Competition{}).
		Where("id=? AND tickets_sold + ? <= max_tickets", id, count).
		Updates(map[string]any{
			"tickets_sold": gorm.Expr("tickets_sold+?", count),
			"status": gorm.Expr(
				"CASE WHEN tickets_sold+? >= max_tickets THEN ? ELSE status END",
				count, entity.CompetitionSoldOut),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
