package repository

import (
	"context"

	"github.com/compdraw/backend/internal/entity"
	"github.com/compdraw/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type TicketRepository interface {
	CreateBatch(ctx context.Context, tickets []*entity.Ticket) error
	DeleteByOrderAndCompetition(ctx context.Context, orderID, competitionID string) error

	GetNumbers(ctx context.Context, competitionID string) ([]int, error)
	GetByNumber(ctx context.Context, competitionID string, number int) (*entity.Ticket, error)
	GetWinner(ctx context.Context, competitionID string) (*entity.Ticket, error)
	GetByOrderID(ctx context.Context, orderID string) ([]entity.Ticket, error)
	GetByUserID(ctx context.Context, userID string) ([]entity.Ticket, error)
	CountByOrderID(ctx context.Context, orderID string) (int64, error)

	MarkWinner(ctx context.Context, competitionID string, number int) error
	ClearWinner(ctx context.Context, competitionID string) error
	MarkInstantWin(ctx context.Context, ticketID string, prizeType entity.PrizeType, value float64, label string) error
}

type ticketRepository struct{}

func NewTicketRepository() *ticketRepository {
	return &ticketRepository{}
}

func (r *ticketRepository) CreateBatch(ctx context.Context, tickets []*entity.Ticket) error {
	return xcontext.DB(ctx).Create(tickets).Error
}

func (r *ticketRepository) DeleteByOrderAndCompetition(
	ctx context.Context, orderID, competitionID string,
) error {
	return xcontext.DB(ctx).Unscoped().
		Where("order_id=? AND competition_id=?", orderID, competitionID).
		Delete(&entity.Ticket{}).Error
}

func (r *ticketRepository) GetNumbers(ctx context.Context, competitionID string) ([]int, error) {
	var numbers []int
	err := xcontext.DB(ctx).Model(&entity.Ticket{}).
		Where("competition_id=?", competitionID).
		Order("number ASC").
		Pluck("number", &numbers).Error
	if err != nil {
		return nil, err
	}

	return numbers, nil
}

func (r *ticketRepository) GetByNumber(
	ctx context.Context, competitionID string, number int,
) (*entity.Ticket, error) {
	var result entity.Ticket
	err := xcontext.DB(ctx).
		Take(&result, "competition_id=? AND number=?", competitionID, number).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *ticketRepository) GetWinner(ctx context.Context, competitionID string) (*entity.Ticket, error) {
	var result entity.Ticket
	err := xcontext.DB(ctx).
		Take(&result, "competition_id=? AND is_winner=?", competitionID, true).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *ticketRepository) GetByOrderID(ctx context.Context, orderID string) ([]entity.Ticket, error) {
	var result []entity.Ticket
	err := xcontext.DB(ctx).
		Where("order_id=?", orderID).
		Order("competition_id ASC, number ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *ticketRepository) GetByUserID(ctx context.Context, userID string) ([]entity.Ticket, error) {
	var result []entity.Ticket
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("allocated_at DESC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *ticketRepository) CountByOrderID(ctx context.Context, orderID string) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.Ticket{}).
		Where("order_id=?", orderID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *ticketRepository) MarkWinner(ctx context.Context, competitionID string, number int) error {
	tx := xcontext.DB(ctx).Model(&entity.Ticket{}).
		Where("competition_id=? AND number=?", competitionID, number).
		Update("is_winner", true)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *ticketRepository) ClearWinner(ctx context.Context, competitionID string) error {
	return xcontext.DB(ctx).Model(&entity.Ticket{}).
		Where("competition_id=? AND is_winner=?", competitionID, true).
		Update("is_winner", false).Error
}

func (r *ticketRepository) MarkInstantWin(
	ctx context.Context,
	ticketID string,
	prizeType entity.PrizeType,
	value float64,
	label string,
) error {
	return xcontext.DB(ctx).Model(&entity.Ticket{}).
		Where("id=?", ticketID).
		Updates(map[string]any{
			"is_instant_win":          true,
			"instant_win_prize_type":  prizeType,
			"instant_win_prize_value": value,
			"instant_win_prize_label": label,
		}).Error
}
