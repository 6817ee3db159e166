package repository

import (
	"context"
	"time"

	"github.com/compdraw/backend/internal/entity"
	"github.com/compdraw/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type QuestionAttemptRepository interface {
	Create(ctx context.Context, attempt *entity.QuestionAttempt) error

	CountIncorrectSince(ctx context.Context, userID, competitionID string, since time.Time) (int64, error)

	// GetNthRecentIncorrect returns the n-th most recent incorrect attempt
	// (0-based) for the user and competition, or gorm.ErrRecordNotFound.
	GetNthRecentIncorrect(ctx context.Context, userID, competitionID string, n int) (*entity.QuestionAttempt, error)

	GetAnsweredQuestionIDs(ctx context.Context, userID, competitionID string) ([]string, error)
	CountByUserAndCompetition(ctx context.Context, userID, competitionID string) (int64, error)
}

type questionAttemptRepository struct{}

func NewQuestionAttemptRepository() *questionAttemptRepository {
	return &questionAttemptRepository{}
}

func (r *questionAttemptRepository) Create(ctx context.Context, attempt *entity.QuestionAttempt) error {
	return xcontext.DB(ctx).Create(attempt).Error
}

func (r *questionAttemptRepository) CountIncorrectSince(
	ctx context.Context, userID, competitionID string, since time.Time,
) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.QuestionAttempt{}).
		Where("user_id=? AND competition_id=? AND is_correct=? AND attempted_at >= ?",
			userID, competitionID, false, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *questionAttemptRepository) GetNthRecentIncorrect(
	ctx context.Context, userID, competitionID string, n int,
) (*entity.QuestionAttempt, error) {
	var result []entity.QuestionAttempt
	err := xcontext.DB(ctx).
		Where("user_id=? AND competition_id=? AND is_correct=?", userID, competitionID, false).
		Order("attempted_at DESC").
		Offset(n).Limit(1).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return &result[0], nil
}

func (r *questionAttemptRepository) GetAnsweredQuestionIDs(
	ctx context.Context, userID, competitionID string,
) ([]string, error) {
	var ids []string
	err := xcontext.DB(ctx).Model(&entity.QuestionAttempt{}).
		Distinct("question_id").
		Where("user_id=? AND competition_id=?", userID, competitionID).
		Pluck("question_id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *questionAttemptRepository) CountByUserAndCompetition(
	ctx context.Context, userID, competitionID string,
) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.QuestionAttempt{}).
		Where("user_id=? AND competition_id=?", userID, competitionID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
