package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/d60-Lab/green-credits/internal/model"
)

// receiptCreditRate converts receipt dollars into bonus credits.
var receiptCreditRate = decimal.NewFromInt(10)

// CreditBreakdown 积分计算的输入与结果
type CreditBreakdown struct {
	BaseCredits    int64
	ReceiptAmount  float64
	ReceiptCredits int64
	TotalBase      int64
	TierMultiplier float64
	EduMultiplier  float64
	Credits        int64
}

// Memo summarises the formula inputs for the ledger.
func (b CreditBreakdown) Memo(title string) string {
	return fmt.Sprintf("Approved: %s (Base:%d + Receipt:$%s) x%s x%s",
		title,
		b.BaseCredits,
		decimal.NewFromFloat(b.ReceiptAmount).String(),
		decimal.NewFromFloat(b.TierMultiplier).String(),
		decimal.NewFromFloat(b.EduMultiplier).String(),
	)
}

// CreditCalculator is a pure function object; T2Multiplier is the factor
// applied to reviewer-verified claims.
type CreditCalculator struct {
	T2Multiplier float64
}

func NewCreditCalculator(t2Multiplier float64) CreditCalculator {
	if t2Multiplier <= 0 {
		t2Multiplier = 1.5
	}
	return CreditCalculator{T2Multiplier: t2Multiplier}
}

// TierMultiplier returns the factor for a verification tier.
func (c CreditCalculator) TierMultiplier(t model.Tier) (float64, error) {
	switch t {
	case model.TierT1:
		return 1.0, nil
	case model.TierT2:
		return c.T2Multiplier, nil
	default:
		return 0, fmt.Errorf("unknown tier %q", t)
	}
}

// Compute returns round((base + round(receipt*10)) * tier * edu). Rounding is
// applied to the receipt conversion and once more at the end, never per factor.
func (c CreditCalculator) Compute(at *model.ActionType, receiptAmount, tierMultiplier, eduMultiplier float64) int64 {
	return c.Breakdown(at, receiptAmount, tierMultiplier, eduMultiplier).Credits
}

func (c CreditCalculator) Breakdown(at *model.ActionType, receiptAmount, tierMultiplier, eduMultiplier float64) CreditBreakdown {
	receipt := decimal.NewFromFloat(receiptAmount).Mul(receiptCreditRate).Round(0).IntPart()
	totalBase := at.BaseCredits + receipt

	credits := decimal.NewFromInt(totalBase).
		Mul(decimal.NewFromFloat(tierMultiplier)).
		Mul(decimal.NewFromFloat(eduMultiplier)).
		Round(0).
		IntPart()

	return CreditBreakdown{
		BaseCredits:    at.BaseCredits,
		ReceiptAmount:  receiptAmount,
		ReceiptCredits: receipt,
		TotalBase:      totalBase,
		TierMultiplier: tierMultiplier,
		EduMultiplier:  eduMultiplier,
		Credits:        credits,
	}
}
