package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/green-credits/internal/model"
)

type VoteRepository interface {
	// Create 写入投票；同一审核人重复投票返回 ErrDuplicate
	Create(ctx context.Context, v *model.Vote) error
	Exists(ctx context.Context, claimID, reviewerID string) (bool, error)
	ListByClaim(ctx context.Context, claimID string) ([]model.Vote, error)
	WithTx(tx *gorm.DB) VoteRepository
}

type voteRepository struct{ db *gorm.DB }

func NewVoteRepository(db *gorm.DB) VoteRepository { return &voteRepository{db: db} }

func (r *voteRepository) WithTx(tx *gorm.DB) VoteRepository { return &voteRepository{db: tx} }

func (r *voteRepository) Create(ctx context.Context, v *model.Vote) error {
	return translate(r.db.WithContext(ctx).Create(v).Error)
}

func (r *voteRepository) Exists(ctx context.Context, claimID, reviewerID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Vote{}).
		Where("claim_id = ? AND reviewer_id = ?", claimID, reviewerID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *voteRepository) ListByClaim(ctx context.Context, claimID string) ([]model.Vote, error) {
	var res []model.Vote
	err := r.db.WithContext(ctx).Where("claim_id = ?", claimID).Order("created_at ASC").Find(&res).Error
	return res, err
}
