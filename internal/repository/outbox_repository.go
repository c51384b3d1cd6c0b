package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/green-credits/internal/model"
)

// OutboxRepository 相似检索发布的 outbox
type OutboxRepository interface {
	// Enqueue 幂等写入：同一声明只保留一条事件
	Enqueue(ctx context.Context, claimID string) error
	// ClaimBatch 领取一批 pending 事件并标记为 processing；
	// processing 超过 lease 未完成的事件视为遗弃，重新领取
	ClaimBatch(ctx context.Context, limit int, now time.Time, lease time.Duration) ([]*model.IndexOutbox, error)
	MarkDone(ctx context.Context, id string, at time.Time) error
	// MarkRetry 记录失败；达到 maxAttempts 后置为 failed，否则回到 pending
	MarkRetry(ctx context.Context, id string, cause string, maxAttempts int) error
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type outboxRepository struct{ db *gorm.DB }

func NewOutboxRepository(db *gorm.DB) OutboxRepository { return &outboxRepository{db: db} }

func (r *outboxRepository) Enqueue(ctx context.Context, claimID string) error {
	ob := &model.IndexOutbox{ID: uuid.New().String(), ClaimID: claimID, Status: model.OutboxPending}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(ob).Error
}

func (r *outboxRepository) ClaimBatch(ctx context.Context, limit int, now time.Time, lease time.Duration) ([]*model.IndexOutbox, error) {
	now = now.UTC()
	var batch []*model.IndexOutbox
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// SKIP LOCKED lets several workers drain the outbox on Postgres
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? OR (status = ? AND (claimed_at IS NULL OR claimed_at < ?))",
				model.OutboxPending, model.OutboxProcessing, now.Add(-lease)).
			Order("created_at").
			Limit(limit).
			Find(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		ids := make([]string, len(batch))
		for i, b := range batch {
			ids[i] = b.ID
		}
		return tx.Model(&model.IndexOutbox{}).
			Where("id IN ?", ids).
			Updates(map[string]any{"status": model.OutboxProcessing, "claimed_at": now}).Error
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *outboxRepository) MarkDone(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.IndexOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxDone, "processed_at": at, "last_error": ""}).Error
}

func (r *outboxRepository) MarkRetry(ctx context.Context, id string, cause string, maxAttempts int) error {
	return r.db.WithContext(ctx).Model(&model.IndexOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": cause,
			"status": gorm.Expr("CASE WHEN attempts + 1 >= ? THEN ? ELSE ? END",
				maxAttempts, model.OutboxFailed, model.OutboxPending),
		}).Error
}

func (r *outboxRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.IndexOutbox{}).Where("status = ?", status).Count(&cnt).Error
	return cnt, err
}
