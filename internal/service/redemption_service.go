package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/green-credits/internal/model"
	"github.com/d60-Lab/green-credits/internal/repository"
	"github.com/d60-Lab/green-credits/pkg/logger"
)

// RedemptionService 积分兑换：余额只从账本计算
type RedemptionService struct {
	db         *gorm.DB
	rewards    repository.RewardRepository
	ledgerRepo repository.LedgerRepository
	ledger     *LedgerService
	clock      clockwork.Clock
}

func NewRedemptionService(db *gorm.DB, rewards repository.RewardRepository, ledgerRepo repository.LedgerRepository, ledger *LedgerService, clock clockwork.Clock) *RedemptionService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RedemptionService{db: db, rewards: rewards, ledgerRepo: ledgerRepo, ledger: ledger, clock: clock}
}

func (s *RedemptionService) ListRewards(ctx context.Context) ([]*model.Reward, error) {
	return s.rewards.ListActive(ctx)
}

// Redeem spends credits on a reward. The account row is locked so two
// concurrent redemptions cannot both pass the balance check.
func (s *RedemptionService) Redeem(ctx context.Context, userID, rewardID string) (*model.Redemption, error) {
	var rd *model.Redemption
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ledgerRepo.WithTx(tx).LockAccount(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		rewards := s.rewards.WithTx(tx)
		reward, err := rewards.Get(ctx, rewardID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRewardUnavailable
		}
		if err != nil {
			return err
		}
		if !reward.Active || reward.Cost <= 0 {
			return ErrRewardUnavailable
		}

		ledger := s.ledger.WithTx(tx)
		balance, err := ledger.Balance(ctx, userID)
		if err != nil {
			return err
		}
		if balance < reward.Cost {
			return ErrInsufficientBalance
		}

		taken, err := rewards.TakeOne(ctx, rewardID)
		if err != nil {
			return err
		}
		if !taken {
			return ErrRewardUnavailable
		}

		rd = &model.Redemption{
			ID:        uuid.New().String(),
			UserID:    userID,
			RewardID:  rewardID,
			Cost:      reward.Cost,
			CreatedAt: s.clock.Now().UTC(),
		}
		if err := rewards.CreateRedemption(ctx, rd); err != nil {
			return err
		}
		if _, err := ledger.Append(ctx, AppendInput{
			AccountID:    userID,
			Type:         model.TxTypeRedeem,
			Amount:       -reward.Cost,
			RedemptionID: &rd.ID,
		}); err != nil {
			return err
		}
		rd.Reward = reward
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("reward redeemed", zap.String("user_id", userID), zap.String("reward_id", rewardID), zap.Int64("cost", rd.Cost))
	return rd, nil
}
