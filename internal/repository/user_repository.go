package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/green-credits/internal/model"
)

type UserRepository interface {
	Get(ctx context.Context, id string) (*model.User, error)
	Upsert(ctx context.Context, u *model.User) error
	// HasReviewPrivilege 是否具备审核权限（REVIEWER / ADMIN）
	HasReviewPrivilege(ctx context.Context, userID string) (bool, error)
}

type userRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Get(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepository) Upsert(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "role", "updated_at"}),
	}).Create(u).Error
}

func (r *userRepository) HasReviewPrivilege(ctx context.Context, userID string) (bool, error) {
	u, err := r.Get(ctx, userID)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.Role.CanReview(), nil
}
