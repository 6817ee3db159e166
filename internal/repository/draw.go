package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/compdraw/backend/internal/entity"
	"github.com/compdraw/backend/pkg/xcontext"
)

type DrawRepository interface {
	Create(ctx context.Context, draw *entity.Draw) error
	Complete(ctx context.Context, drawID, winningTicketID string, rolls []entity.Roll) error
	Fail(ctx context.Context, drawID string, rolls []entity.Roll) error

	GetByID(ctx context.Context, drawID string) (*entity.Draw, error)
	GetLatestByCompetitionID(ctx context.Context, competitionID string) (*entity.Draw, error)
	GetHistoryByCompetitionID(ctx context.Context, competitionID string) ([]entity.Draw, error)
	CountCompleted(ctx context.Context, competitionID string, includeForced bool) (int64, error)
}

type drawRepository struct{}

func NewDrawRepository() *drawRepository {
	return &drawRepository{}
}

func (r *drawRepository) Create(ctx context.Context, draw *entity.Draw) error {
	return xcontext.DB(ctx).Create(draw).Error
}

func (r *drawRepository) Complete(
	ctx context.Context, drawID, winningTicketID string, rolls []entity.Roll,
) error {
	return xcontext.DB(ctx).Model(&entity.Draw{}).
		Where("id=?", drawID).
		Updates(map[string]any{
			"winning_ticket_id": winningTicketID,
			"rolls":             entity.Array[entity.Roll](rolls),
			"status":            entity.DrawCompleted,
			"completed_at":      sql.NullTime{Time: time.Now(), Valid: true},
		}).Error
}

func (r *drawRepository) Fail(ctx context.Context, drawID string, rolls []entity.Roll) error {
	return xcontext.DB(ctx).Model(&entity.Draw{}).
		Where("id=?", drawID).
		Updates(map[string]any{
			"rolls":        entity.Array[entity.Roll](rolls),
			"status":       entity.DrawFailed,
			"completed_at": sql.NullTime{Time: time.Now(), Valid: true},
		}).Error
}

func (r *drawRepository) GetByID(ctx context.Context, drawID string) (*entity.Draw, error) {
	var result entity.Draw
	if err := xcontext.DB(ctx).Take(&result, "id=?", drawID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *drawRepository) GetLatestByCompetitionID(
	ctx context.Context, competitionID string,
) (*entity.Draw, error) {
	var result entity.Draw
	err := xcontext.DB(ctx).
		Where("competition_id=?", competitionID).
		Order("started_at DESC, created_at DESC").
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *drawRepository) GetHistoryByCompetitionID(
	ctx context.Context, competitionID string,
) ([]entity.Draw, error) {
	var result []entity.Draw
	err := xcontext.DB(ctx).
		Where("competition_id=?", competitionID).
		Order("started_at ASC, created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *drawRepository) CountCompleted(
	ctx context.Context, competitionID string, includeForced bool,
) (int64, error) {
	db := xcontext.DB(ctx).Model(&entity.Draw{}).
		Where("competition_id=? AND status=?", competitionID, entity.DrawCompleted)
	if !includeForced {
		db = db.Where("forced_redraw=?", false)
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}
