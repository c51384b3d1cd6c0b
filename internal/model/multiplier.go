package model

import "time"

// UserMultiplier 用户临时加成，过期后按 1.0 处理（惰性过期）
type UserMultiplier struct {
	UserID     string    `json:"user_id" gorm:"primaryKey;type:varchar(36)"`
	Multiplier float64   `json:"multiplier" gorm:"not null"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"not null;index"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (UserMultiplier) TableName() string { return "user_multipliers" }

// ActiveAt returns the multiplier in force at t.
func (m *UserMultiplier) ActiveAt(t time.Time) float64 {
	if m == nil || !t.Before(m.ExpiresAt) {
		return 1.0
	}
	return m.Multiplier
}
