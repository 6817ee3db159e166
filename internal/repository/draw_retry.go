package repository

import (
	"context"
	"time"

	"github.com/compdraw/backend/internal/entity"
	"github.com/compdraw/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type DrawRetryRepository interface {
	Create(ctx context.Context, retry *entity.DrawRetry) error
	GetDue(ctx context.Context, now time.Time) ([]entity.DrawRetry, error)

	// MarkAttempted consumes a retry job. The conditional update guarantees
	// a job runs at most once even with overlapping cron workers.
	MarkAttempted(ctx context.Context, id string) error
}

type drawRetryRepository struct{}

func NewDrawRetryRepository() *drawRetryRepository {
	return &drawRetryRepository{}
}

func (r *drawRetryRepository) Create(ctx context.Context, retry *entity.DrawRetry) error {
	return xcontext.DB(ctx).Create(retry).Error
}

func (r *drawRetryRepository) GetDue(ctx context.Context, now time.Time) ([]entity.DrawRetry, error) {
	var result []entity.DrawRetry
	err := xcontext.DB(ctx).
		Where("attempted=? AND execute_at <= ?", false, now).
		Order("execute_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *drawRetryRepository) MarkAttempted(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).Model(&entity.DrawRetry{}).
		Where("id=? AND attempted=?", id, false).
		Update("attempted", true)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
