package model

import "time"

// ActionType 可奖励的行为类型（参考数据）
type ActionType struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Code        string    `json:"code" gorm:"type:varchar(64);uniqueIndex;not null"`
	Title       string    `json:"title" gorm:"type:varchar(128);not null"`
	BaseCredits int64     `json:"base_credits" gorm:"not null"`
	Icon        string    `json:"icon,omitempty" gorm:"type:varchar(16)"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ActionType) TableName() string { return "action_types" }
