package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/green-credits/internal/model"
)

type RewardRepository interface {
	ListActive(ctx context.Context) ([]*model.Reward, error)
	Get(ctx context.Context, id string) (*model.Reward, error)
	Upsert(ctx context.Context, rw *model.Reward) error
	// TakeOne 扣减一件库存；库存为 NULL 表示不限量。返回是否成功
	TakeOne(ctx context.Context, id string) (bool, error)
	CreateRedemption(ctx context.Context, rd *model.Redemption) error
	WithTx(tx *gorm.DB) RewardRepository
}

type rewardRepository struct{ db *gorm.DB }

func NewRewardRepository(db *gorm.DB) RewardRepository { return &rewardRepository{db: db} }

func (r *rewardRepository) WithTx(tx *gorm.DB) RewardRepository { return &rewardRepository{db: tx} }

func (r *rewardRepository) ListActive(ctx context.Context) ([]*model.Reward, error) {
	var res []*model.Reward
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("cost ASC").Find(&res).Error
	return res, err
}

func (r *rewardRepository) Get(ctx context.Context, id string) (*model.Reward, error) {
	var rw model.Reward
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rw).Error; err != nil {
		return nil, translate(err)
	}
	return &rw, nil
}

func (r *rewardRepository) Upsert(ctx context.Context, rw *model.Reward) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "title"}},
		DoNothing: true,
	}).Create(rw).Error
}

func (r *rewardRepository) TakeOne(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Reward{}).
		Where("id = ? AND active = ? AND (inventory IS NULL OR inventory > 0)", id, true).
		Update("inventory", gorm.Expr("CASE WHEN inventory IS NULL THEN NULL ELSE inventory - 1 END"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *rewardRepository) CreateRedemption(ctx context.Context, rd *model.Redemption) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(rd).Error
}
