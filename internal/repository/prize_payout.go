package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/compdraw/backend/internal/entity"
	"github.com/compdraw/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type PrizePayoutRepository interface {
	Create(ctx context.Context, payout *entity.PrizePayout) error
	GetPending(ctx context.Context) ([]entity.PrizePayout, error)
	MarkCompleted(ctx context.Context, id string) error
}

type prizePayoutRepository struct{}

func NewPrizePayoutRepository() *prizePayoutRepository {
	return &prizePayoutRepository{}
}

func (r *prizePayoutRepository) Create(ctx context.Context, payout *entity.PrizePayout) error {
	return xcontext.DB(ctx).Create(payout).Error
}

func (r *prizePayoutRepository) GetPending(ctx context.Context) ([]entity.PrizePayout, error) {
	var result []entity.PrizePayout
	err := xcontext.DB(ctx).
		Where("status=?", entity.PayoutPending).
		Order("created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *prizePayoutRepository) MarkCompleted(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).Model(&entity.PrizePayout{}).
		Where("id=? AND status=?", id, entity.PayoutPending).
		Updates(map[string]any{
			"status":       entity.PayoutCompleted,
			"completed_at": sql.NullTime{Time: time.Now(), Valid: true},
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

type CouponRepository interface {
	Create(ctx context.Context, coupon *entity.Coupon) error
	GetByUserID(ctx context.Context, userID string) ([]entity.Coupon, error)
}

type couponRepository struct{}

func NewCouponRepository() *couponRepository {
	return &couponRepository{}
}

func (r *couponRepository) Create(ctx context.Context, coupon *entity.Coupon) error {
	return xcontext.DB(ctx).Create(coupon).Error
}

func (r *couponRepository) GetByUserID(ctx context.Context, userID string) ([]entity.Coupon, error) {
	var result []entity.Coupon
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("created_at DESC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
