package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/d60-Lab/green-credits/internal/model"
	"github.com/d60-Lab/green-credits/internal/repository"
)

const (
	DefaultQuizBonus         = 1.2
	DefaultQuizBonusDuration = 24 * time.Hour
)

// MultiplierService 用户临时加成：写入为 upsert，读取时惰性判断过期
type MultiplierService struct {
	repo     repository.MultiplierRepository
	clock    clockwork.Clock
	bonus    float64
	duration time.Duration
}

func NewMultiplierService(repo repository.MultiplierRepository, clock clockwork.Clock, bonus float64, duration time.Duration) *MultiplierService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if bonus <= 0 {
		bonus = DefaultQuizBonus
	}
	if duration <= 0 {
		duration = DefaultQuizBonusDuration
	}
	return &MultiplierService{repo: repo, clock: clock, bonus: bonus, duration: duration}
}

// WithTx returns a copy bound to an open transaction.
func (s *MultiplierService) WithTx(tx *gorm.DB) *MultiplierService {
	cp := *s
	cp.repo = s.repo.WithTx(tx)
	return &cp
}

// GrantQuizBonus applies the configured quiz bonus.
func (s *MultiplierService) GrantQuizBonus(ctx context.Context, userID string) (*model.UserMultiplier, error) {
	return s.SetQuizBonus(ctx, userID, s.bonus, s.duration)
}

// SetQuizBonus creates or replaces the user's multiplier; re-qualifying resets
// the window instead of stacking.
func (s *MultiplierService) SetQuizBonus(ctx context.Context, userID string, multiplier float64, duration time.Duration) (*model.UserMultiplier, error) {
	if multiplier <= 0 || duration <= 0 {
		return nil, fmt.Errorf("%w: multiplier and duration must be positive", ErrInvalidInput)
	}
	now := s.clock.Now().UTC()
	m := &model.UserMultiplier{
		UserID:     userID,
		Multiplier: multiplier,
		ExpiresAt:  now.Add(duration),
		UpdatedAt:  now,
	}
	if err := s.repo.Upsert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// CurrentMultiplier returns the stored multiplier while it is unexpired, else 1.0.
func (s *MultiplierService) CurrentMultiplier(ctx context.Context, userID string) (float64, error) {
	m, err := s.repo.Get(ctx, userID)
	if err == repository.ErrNotFound {
		return 1.0, nil
	}
	if err != nil {
		return 0, err
	}
	return m.ActiveAt(s.clock.Now()), nil
}

// Purge deletes rows that expired before now-retention. Readers never depend on it.
func (s *MultiplierService) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteExpiredBefore(ctx, s.clock.Now().UTC().Add(-retention))
}
