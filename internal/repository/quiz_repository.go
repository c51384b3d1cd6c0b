package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/green-credits/internal/model"
)

type QuizRepository interface {
	Get(ctx context.Context, id string) (*model.Quiz, error)
	Upsert(ctx context.Context, q *model.Quiz) error
	CreateAttempt(ctx context.Context, a *model.QuizAttempt) error
}

type quizRepository struct{ db *gorm.DB }

func NewQuizRepository(db *gorm.DB) QuizRepository { return &quizRepository{db: db} }

func (r *quizRepository) Get(ctx context.Context, id string) (*model.Quiz, error) {
	var q model.Quiz
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&q).Error; err != nil {
		return nil, translate(err)
	}
	return &q, nil
}

func (r *quizRepository) Upsert(ctx context.Context, q *model.Quiz) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "title"}},
		DoNothing: true,
	}).Create(q).Error
}

func (r *quizRepository) CreateAttempt(ctx context.Context, a *model.QuizAttempt) error {
	return r.db.WithContext(ctx).Create(a).Error
}
