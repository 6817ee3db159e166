package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/compdraw/backend/internal/entity"
	"github.com/compdraw/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type InstantWinRepository interface {
	CreateBatch(ctx context.Context, entries []*entity.InstantWin) error
	DeleteUnclaimed(ctx context.Context, competitionID string) error

	GetByCompetitionID(ctx context.Context, competitionID string) ([]entity.InstantWin, error)
	GetClaimedNumbers(ctx context.Context, competitionID string) ([]int, error)
	GetUnclaimedByNumber(ctx context.Context, competitionID string, number int) (*entity.InstantWin, error)
	GetByClaimedUserID(ctx context.Context, userID string) ([]entity.InstantWin, error)

	// Claim transitions an entry from unclaimed to claimed exactly once.
	// gorm.ErrRecordNotFound means another claim already won.
	Claim(ctx context.Context, entryID, userID string) error
}

type instantWinRepository struct{}

func NewInstantWinRepository() *instantWinRepository {
	return &instantWinRepository{}
}

func (r *instantWinRepository) CreateBatch(ctx context.Context, entries []*entity.InstantWin) error {
	return xcontext.DB(ctx).Create(entries).Error
}

func (r *instantWinRepository) DeleteUnclaimed(ctx context.Context, competitionID string) error {
	return xcontext.DB(ctx).Unscoped().
		Where("competition_id=? AND claimed=?", competitionID, false).
		Delete(&entity.InstantWin{}).Error
}

func (r *instantWinRepository) GetByCompetitionID(
	ctx context.Context, competitionID string,
) ([]entity.InstantWin, error) {
	var result []entity.InstantWin
	err := xcontext.DB(ctx).
		Where("competition_id=?", competitionID).
		Order("ticket_number ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *instantWinRepository) GetClaimedNumbers(
	ctx context.Context, competitionID string,
) ([]int, error) {
	var numbers []int
	err := xcontext.DB(ctx).Model(&entity.InstantWin{}).
		Where("competition_id=? AND claimed=?", competitionID, true).
		Pluck("ticket_number", &numbers).Error
	if err != nil {
		return nil, err
	}

	return numbers, nil
}

func (r *instantWinRepository) GetUnclaimedByNumber(
	ctx context.Context, competitionID string, number int,
) (*entity.InstantWin, error) {
	var result entity.InstantWin
	err := xcontext.DB(ctx).
		Take(&result, "competition_id=? AND ticket_number=? AND claimed=?",
			competitionID, number, false).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *instantWinRepository) GetByClaimedUserID(
	ctx context.Context, userID string,
) ([]entity.InstantWin, error) {
	var result []entity.InstantWin
	err := xcontext.DB(ctx).
		Where("claimed_by_user_id=? AND claimed=?", userID, true).
		Order("claimed_at DESC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *instantWinRepository) Claim(ctx context.Context, entryID, userID string) error {
	tx := xcontext.DB(ctx).Model(&entity.InstantWin{}).
		Where("id=? AND claimed=?", entryID, false).
		Updates(map[string]any{
			"claimed":            true,
			"claimed_by_user_id": userID,
			"claimed_at":         sql.NullTime{Time: time.Now(), Valid: true},
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
