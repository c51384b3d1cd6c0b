package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/green-credits/internal/model"
)

type ClaimRepository interface {
	// Create 写入新声明；(user, time_bucket, fingerprint) 冲突时返回 ErrDuplicate
	Create(ctx context.Context, claim *model.Claim) error
	FindDuplicate(ctx context.Context, userID, timeBucket, fingerprint string) (*model.Claim, error)
	GetByID(ctx context.Context, id string) (*model.Claim, error)
	// GetForUpdate 读取并锁定声明行（仅在事务内有意义）
	GetForUpdate(ctx context.Context, id string) (*model.Claim, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Claim, error)
	ListPending(ctx context.Context, offset, limit int) ([]*model.Claim, error)
	// Finalize 仅当当前状态为 PENDING 时迁移到终态，返回是否迁移成功
	Finalize(ctx context.Context, id string, status model.ClaimStatus, tier model.Tier, credits *int64) (bool, error)
	WithTx(tx *gorm.DB) ClaimRepository
}

type claimRepository struct{ db *gorm.DB }

func NewClaimRepository(db *gorm.DB) ClaimRepository { return &claimRepository{db: db} }

func (r *claimRepository) WithTx(tx *gorm.DB) ClaimRepository { return &claimRepository{db: tx} }

func (r *claimRepository) Create(ctx context.Context, claim *model.Claim) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(claim).Error)
}

func (r *claimRepository) FindDuplicate(ctx context.Context, userID, timeBucket, fingerprint string) (*model.Claim, error) {
	var c model.Claim
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND time_bucket = ? AND fingerprint = ?", userID, timeBucket, fingerprint).
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *claimRepository) GetByID(ctx context.Context, id string) (*model.Claim, error) {
	var c model.Claim
	err := r.db.WithContext(ctx).
		Preload("ActionType").
		Preload("Votes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *claimRepository) GetForUpdate(ctx context.Context, id string) (*model.Claim, error) {
	var c model.Claim
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *claimRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Claim, error) {
	var res []*model.Claim
	err := r.db.WithContext(ctx).
		Preload("ActionType").
		Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *claimRepository) ListPending(ctx context.Context, offset, limit int) ([]*model.Claim, error) {
	var res []*model.Claim
	err := r.db.WithContext(ctx).
		Preload("ActionType").
		Where("status = ?", model.ClaimStatusPending).
		Order("submitted_at ASC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *claimRepository) Finalize(ctx context.Context, id string, status model.ClaimStatus, tier model.Tier, credits *int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Claim{}).
		Where("id = ? AND status = ?", id, model.ClaimStatusPending).
		Updates(map[string]any{
			"status":          status,
			"tier":            tier,
			"credits_awarded": credits,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
