package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/green-credits/internal/model"
)

type ActionTypeRepository interface {
	GetByCode(ctx context.Context, code string) (*model.ActionType, error)
	List(ctx context.Context) ([]*model.ActionType, error)
	// Upsert 按 code 幂等写入；已被引用的行为类型不修改
	Upsert(ctx context.Context, at *model.ActionType) error
}

type actionTypeRepository struct{ db *gorm.DB }

func NewActionTypeRepository(db *gorm.DB) ActionTypeRepository {
	return &actionTypeRepository{db: db}
}

func (r *actionTypeRepository) GetByCode(ctx context.Context, code string) (*model.ActionType, error) {
	var at model.ActionType
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&at).Error; err != nil {
		return nil, translate(err)
	}
	return &at, nil
}

func (r *actionTypeRepository) List(ctx context.Context) ([]*model.ActionType, error) {
	var res []*model.ActionType
	err := r.db.WithContext(ctx).Order("code").Find(&res).Error
	return res, err
}

func (r *actionTypeRepository) Upsert(ctx context.Context, at *model.ActionType) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(at).Error
}
