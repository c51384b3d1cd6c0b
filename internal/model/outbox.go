package model

import "time"

// Outbox status values.
const (
	OutboxPending    = "pending"
	OutboxProcessing = "processing"
	OutboxDone       = "done"
	OutboxFailed     = "failed"
)

// IndexOutbox 相似检索待发布事件（提交成功后写入，由 worker 异步消费）
type IndexOutbox struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)"`
	ClaimID     string     `gorm:"type:varchar(36);uniqueIndex"`
	Status      string     `gorm:"type:varchar(16);index;not null"`
	Attempts    int        `gorm:"not null;default:0"`
	LastError   string     `gorm:"type:text"`
	CreatedAt   time.Time  `gorm:"index"`
	ClaimedAt   *time.Time // processing 租约起点
	ProcessedAt *time.Time
}

func (IndexOutbox) TableName() string { return "index_outbox" }
