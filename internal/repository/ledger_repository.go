package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/green-credits/internal/model"
)

// LedgerRepository 只追加账本；没有 Update / Delete
type LedgerRepository interface {
	Append(ctx context.Context, tx *model.LedgerTransaction) error
	Sum(ctx context.Context, accountID string) (int64, error)
	// List 按时间倒序返回流水，并带出关联的声明/兑换
	List(ctx context.Context, accountID string) ([]*model.LedgerTransaction, error)
	CountByClaim(ctx context.Context, claimID string) (int64, error)
	// LockAccount 锁住账户行，串行化同一用户的扣减
	LockAccount(ctx context.Context, accountID string) error
	WithTx(tx *gorm.DB) LedgerRepository
}

type ledgerRepository struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) LedgerRepository { return &ledgerRepository{db: db} }

func (r *ledgerRepository) WithTx(tx *gorm.DB) LedgerRepository { return &ledgerRepository{db: tx} }

func (r *ledgerRepository) Append(ctx context.Context, tx *model.LedgerTransaction) error {
	return translate(r.db.WithContext(ctx).Omit("Claim", "Redemption").Create(tx).Error)
}

func (r *ledgerRepository) Sum(ctx context.Context, accountID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.LedgerTransaction{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *ledgerRepository) List(ctx context.Context, accountID string) ([]*model.LedgerTransaction, error) {
	var res []*model.LedgerTransaction
	err := r.db.WithContext(ctx).
		Preload("Claim.ActionType").
		Preload("Redemption.Reward").
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Find(&res).Error
	return res, err
}

func (r *ledgerRepository) CountByClaim(ctx context.Context, claimID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.LedgerTransaction{}).Where("claim_id = ?", claimID).Count(&cnt).Error
	return cnt, err
}

func (r *ledgerRepository) LockAccount(ctx context.Context, accountID string) error {
	var u model.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", accountID).
		First(&u).Error
	return translate(err)
}
