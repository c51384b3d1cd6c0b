package model

import "time"

// Role 用户角色
type Role string

const (
	RoleUser     Role = "USER"
	RoleReviewer Role = "REVIEWER"
	RoleAdmin    Role = "ADMIN"
)

// CanReview reports whether the role may vote on claims.
func (r Role) CanReview() bool {
	switch r {
	case RoleReviewer, RoleAdmin:
		return true
	case RoleUser:
		return false
	default:
		return false
	}
}

// User 用户（身份信息由外部系统维护，这里只保留角色）
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(128)"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex"`
	Role      Role      `json:"role" gorm:"type:varchar(16);not null;default:'USER'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
