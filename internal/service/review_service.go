package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/green-credits/internal/model"
	"github.com/d60-Lab/green-credits/internal/repository"
	"github.com/d60-Lab/green-credits/pkg/logger"
)

// Decision 根据票数得出的结论
type Decision int

const (
	DecisionPending Decision = iota
	DecisionApprove
	DecisionReject
)

func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionApprove:
		return "approve"
	case DecisionReject:
		return "reject"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Thresholds 审核阈值
type Thresholds struct {
	Approve int
	Reject  int
}

// Decide applies the voting rule: enough rejects always wins; approval needs
// enough approves and no reject at all.
func (t Thresholds) Decide(approve, reject int) Decision {
	switch {
	case reject >= t.Reject:
		return DecisionReject
	case approve >= t.Approve && reject == 0:
		return DecisionApprove
	default:
		return DecisionPending
	}
}

// VoteOutcome 投票结果
type VoteOutcome struct {
	Vote         *model.Vote       `json:"vote"`
	ApproveCount int               `json:"approve_count"`
	RejectCount  int               `json:"reject_count"`
	Status       model.ClaimStatus `json:"status"`
	Credits      *int64            `json:"credits_awarded,omitempty"`
}

// ReviewService 审核状态机
type ReviewService struct {
	db          *gorm.DB
	users       repository.UserRepository
	claims      repository.ClaimRepository
	votes       repository.VoteRepository
	ledger      *LedgerService
	multipliers *MultiplierService
	calc        CreditCalculator
	thresholds  Thresholds
	clock       clockwork.Clock
}

func NewReviewService(
	db *gorm.DB,
	users repository.UserRepository,
	claims repository.ClaimRepository,
	votes repository.VoteRepository,
	ledger *LedgerService,
	multipliers *MultiplierService,
	calc CreditCalculator,
	thresholds Thresholds,
	clock clockwork.Clock,
) *ReviewService {
	if thresholds.Approve < 1 {
		thresholds.Approve = 2
	}
	if thresholds.Reject < 1 {
		thresholds.Reject = 2
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ReviewService{
		db:          db,
		users:       users,
		claims:      claims,
		votes:       votes,
		ledger:      ledger,
		multipliers: multipliers,
		calc:        calc,
		thresholds:  thresholds,
		clock:       clock,
	}
}

// CastVote records a reviewer's vote and finalizes the claim when the tally
// is decisive. Vote, transition and MINT commit together.
func (s *ReviewService) CastVote(ctx context.Context, claimID, reviewerID string, approve bool, reason *string) (*VoteOutcome, error) {
	ok, err := s.users.HasReviewPrivilege(ctx, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("check review privilege: %w", err)
	}
	if !ok {
		return nil, ErrUnauthorized
	}

	var out *VoteOutcome
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claims := s.claims.WithTx(tx)
		votes := s.votes.WithTx(tx)

		// 锁住声明行，同一声明的投票串行执行
		claim, err := claims.GetForUpdate(ctx, claimID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrClaimNotFound
		}
		if err != nil {
			return err
		}
		if claim.Status.Terminal() {
			return ErrClaimNotPending
		}

		exists, err := votes.Exists(ctx, claimID, reviewerID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyVoted
		}

		vote := &model.Vote{
			ID:         uuid.New().String(),
			ClaimID:    claimID,
			ReviewerID: reviewerID,
			Approve:    approve,
			Reason:     reason,
			CreatedAt:  s.clock.Now().UTC(),
		}
		if err := votes.Create(ctx, vote); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyVoted
			}
			return err
		}

		out, err = s.finalize(ctx, tx, claimID)
		if err != nil {
			return err
		}
		out.Vote = vote
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("vote cast",
		zap.String("claim_id", claimID),
		zap.String("reviewer_id", reviewerID),
		zap.Bool("approve", approve),
		zap.String("status", string(out.Status)),
	)
	return out, nil
}

// Finalize re-evaluates a claim's votes. Calling it on a terminal claim or
// calling it twice is a no-op.
func (s *ReviewService) Finalize(ctx context.Context, claimID string) (*VoteOutcome, error) {
	var out *VoteOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.claims.WithTx(tx).GetForUpdate(ctx, claimID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrClaimNotFound
			}
			return err
		}
		var err error
		out, err = s.finalize(ctx, tx, claimID)
		return err
	})
	return out, err
}

// finalize must run inside tx with the claim row already locked.
func (s *ReviewService) finalize(ctx context.Context, tx *gorm.DB, claimID string) (*VoteOutcome, error) {
	claims := s.claims.WithTx(tx)

	claim, err := claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	approveCount, rejectCount := model.Tally(claim.Votes)
	out := &VoteOutcome{
		ApproveCount: approveCount,
		RejectCount:  rejectCount,
		Status:       claim.Status,
		Credits:      claim.CreditsAwarded,
	}
	if claim.Status.Terminal() {
		return out, nil
	}

	switch s.thresholds.Decide(approveCount, rejectCount) {
	case DecisionPending:
		return out, nil

	case DecisionReject:
		moved, err := claims.Finalize(ctx, claimID, model.ClaimStatusRejected, model.TierT1, nil)
		if err != nil {
			return nil, err
		}
		if moved {
			out.Status = model.ClaimStatusRejected
		}
		return out, nil

	case DecisionApprove:
		if claim.ActionType == nil {
			return nil, fmt.Errorf("claim %s has no action type", claimID)
		}
		tierMul, err := s.calc.TierMultiplier(model.TierT2)
		if err != nil {
			return nil, err
		}
		edu, err := s.multipliers.WithTx(tx).CurrentMultiplier(ctx, claim.UserID)
		if err != nil {
			return nil, err
		}
		b := s.calc.Breakdown(claim.ActionType, claim.ReceiptAmount(), tierMul, edu)

		moved, err := claims.Finalize(ctx, claimID, model.ClaimStatusApproved, model.TierT2, &b.Credits)
		if err != nil {
			return nil, err
		}
		if !moved {
			return out, nil
		}
		credits := b.Credits
		out.Status = model.ClaimStatusApproved
		out.Credits = &credits
		if credits == 0 {
			return out, nil
		}
		if _, err := s.ledger.WithTx(tx).Append(ctx, AppendInput{
			AccountID: claim.UserID,
			Type:      model.TxTypeMint,
			Amount:    b.Credits,
			Memo:      b.Memo(claim.ActionType.Title),
			ClaimID:   &claim.ID,
		}); err != nil {
			return nil, err
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unhandled decision %v", s.thresholds.Decide(approveCount, rejectCount))
	}
}
