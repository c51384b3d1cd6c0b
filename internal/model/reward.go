package model

import "time"

// Reward 积分商城商品
type Reward struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title       string    `json:"title" gorm:"type:varchar(128);not null;uniqueIndex"`
	Description string    `json:"description" gorm:"type:text"`
	Cost        int64     `json:"cost" gorm:"not null"`
	Inventory   *int64    `json:"inventory,omitempty"` // nil = unlimited
	Category    string    `json:"category" gorm:"type:varchar(32)"`
	Active      bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Reward) TableName() string { return "rewards" }

// Redemption 兑换记录
type Redemption struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);not null;index"`
	RewardID  string    `json:"reward_id" gorm:"type:varchar(36);not null"`
	Reward    *Reward   `json:"reward,omitempty" gorm:"foreignKey:RewardID"`
	Cost      int64     `json:"cost" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (Redemption) TableName() string { return "redemptions" }
