package repository

import (
	"context"

	"github.com/compdraw/backend/internal/entity"
	"github.com/compdraw/backend/pkg/xcontext"
)

type QuestionRepository interface {
	Create(ctx context.Context, question *entity.Question) error
	GetByID(ctx context.Context, id string) (*entity.Question, error)
	GetActiveIDs(ctx context.Context) ([]string, error)
}

type questionRepository struct{}

func NewQuestionRepository() *questionRepository {
	return &questionRepository{}
}

func (r *questionRepository) Create(ctx context.Context, question *entity.Question) error {
	return xcontext.DB(ctx).Create(question).Error
}

func (r *questionRepository) GetByID(ctx context.Context, id string) (*entity.Question, error) {
	var result entity.Question
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *questionRepository) GetActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := xcontext.DB(ctx).Model(&entity.Question{}).
		Where("active=?", true).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}
