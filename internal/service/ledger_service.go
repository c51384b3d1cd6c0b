package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/d60-Lab/green-credits/internal/model"
	"github.com/d60-Lab/green-credits/internal/repository"
)

// AppendInput 一笔流水
type AppendInput struct {
	AccountID    string
	Type         model.TxType
	Amount       int64
	Memo         string
	ClaimID      *string
	RedemptionID *string
}

// StatementLine 对账单中的一行
type StatementLine struct {
	ID          string       `json:"id"`
	Date        time.Time    `json:"date"`
	Type        model.TxType `json:"type"`
	Amount      int64        `json:"amount"`
	Description string       `json:"description"`
}

// Wallet 余额与对账单（同一次读取）
type Wallet struct {
	Balance   int64           `json:"balance"`
	Statement []StatementLine `json:"statement"`
}

// LedgerService 账本是余额的唯一来源
type LedgerService struct {
	repo  repository.LedgerRepository
	clock clockwork.Clock
}

func NewLedgerService(repo repository.LedgerRepository, clock clockwork.Clock) *LedgerService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LedgerService{repo: repo, clock: clock}
}

func (s *LedgerService) WithTx(tx *gorm.DB) *LedgerService {
	return &LedgerService{repo: s.repo.WithTx(tx), clock: s.clock}
}

// Append writes a new transaction. Entries are never revised; corrections are
// new offsetting entries.
func (s *LedgerService) Append(ctx context.Context, in AppendInput) (*model.LedgerTransaction, error) {
	if err := validateAmount(in.Type, in.Amount); err != nil {
		return nil, err
	}
	tx := &model.LedgerTransaction{
		ID:           uuid.New().String(),
		AccountID:    in.AccountID,
		Type:         in.Type,
		Amount:       in.Amount,
		ClaimID:      in.ClaimID,
		RedemptionID: in.RedemptionID,
		Memo:         in.Memo,
		CreatedAt:    s.clock.Now().UTC(),
	}
	if err := s.repo.Append(ctx, tx); err != nil {
		return nil, fmt.Errorf("append ledger transaction: %w", err)
	}
	return tx, nil
}

func validateAmount(t model.TxType, amount int64) error {
	switch t {
	case model.TxTypeMint:
		if amount <= 0 {
			return fmt.Errorf("%w: MINT amount must be positive", ErrInvalidInput)
		}
	case model.TxTypeRedeem:
		if amount >= 0 {
			return fmt.Errorf("%w: REDEEM amount must be negative", ErrInvalidInput)
		}
	case model.TxTypeAdjust:
		if amount == 0 {
			return fmt.Errorf("%w: ADJUST amount must be non-zero", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown transaction type %q", ErrInvalidInput, t)
	}
	return nil
}

// Balance 余额 = Σ amount
func (s *LedgerService) Balance(ctx context.Context, userID string) (int64, error) {
	return s.repo.Sum(ctx, userID)
}

// Statement returns the user's transactions, most recent first.
func (s *LedgerService) Statement(ctx context.Context, userID string) ([]StatementLine, error) {
	txs, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	lines := make([]StatementLine, len(txs))
	for i, tx := range txs {
		lines[i] = StatementLine{
			ID:          tx.ID,
			Date:        tx.CreatedAt,
			Type:        tx.Type,
			Amount:      tx.Amount,
			Description: describe(tx),
		}
	}
	return lines, nil
}

// Wallet derives the balance from the same rows as the statement so the two
// always agree.
func (s *LedgerService) Wallet(ctx context.Context, userID string) (*Wallet, error) {
	lines, err := s.Statement(ctx, userID)
	if err != nil {
		return nil, err
	}
	var balance int64
	for _, l := range lines {
		balance += l.Amount
	}
	return &Wallet{Balance: balance, Statement: lines}, nil
}

func describe(tx *model.LedgerTransaction) string {
	switch {
	case tx.Memo != "":
		return tx.Memo
	case tx.Claim != nil && tx.Claim.ActionType != nil:
		return "Claim: " + tx.Claim.ActionType.Title
	case tx.Redemption != nil && tx.Redemption.Reward != nil:
		return "Redeemed: " + tx.Redemption.Reward.Title
	default:
		return "Transaction"
	}
}
