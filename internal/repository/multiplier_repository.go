package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/green-credits/internal/model"
)

type MultiplierRepository interface {
	// Upsert 单条语句 create-or-replace，避免读后写丢失更新
	Upsert(ctx context.Context, m *model.UserMultiplier) error
	Get(ctx context.Context, userID string) (*model.UserMultiplier, error)
	DeleteExpiredBefore(ctx context.Context, t time.Time) (int64, error)
	WithTx(tx *gorm.DB) MultiplierRepository
}

type multiplierRepository struct{ db *gorm.DB }

func NewMultiplierRepository(db *gorm.DB) MultiplierRepository {
	return &multiplierRepository{db: db}
}

func (r *multiplierRepository) WithTx(tx *gorm.DB) MultiplierRepository {
	return &multiplierRepository{db: tx}
}

func (r *multiplierRepository) Upsert(ctx context.Context, m *model.UserMultiplier) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"multiplier", "expires_at", "updated_at"}),
	}).Create(m).Error
}

func (r *multiplierRepository) Get(ctx context.Context, userID string) (*model.UserMultiplier, error) {
	var m model.UserMultiplier
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *multiplierRepository) DeleteExpiredBefore(ctx context.Context, t time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", t).Delete(&model.UserMultiplier{})
	return res.RowsAffected, res.Error
}
