package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/green-credits/internal/model"
)

func TestCreditCalculator_Compute(t *testing.T) {
	calc := NewCreditCalculator(1.5)
	bike := &model.ActionType{Code: "BIKE_TO_CAMPUS", Title: "Bike to Campus", BaseCredits: 10}
	leaf := &model.ActionType{Code: "REUSABLE_CONTAINER", BaseCredits: 3}

	tests := []struct {
		name    string
		at      *model.ActionType
		receipt float64
		tier    float64
		edu     float64
		want    int64
	}{
		{"receipt and T2", bike, 5.0, 1.5, 1.0, 90},
		{"quiz bonus", bike, 5.0, 1.5, 1.2, 108},
		{"no receipt T1", bike, 0, 1.0, 1.0, 10},
		{"receipt rounds half up", bike, 2.35, 1.5, 1.0, 51},
		{"receipt below half a credit", bike, 0.04, 1.0, 1.0, 10},
		// 3 * 1.5 * 1.2 = 5.4; rounding after the tier factor would give 6
		{"single final rounding", leaf, 0, 1.5, 1.2, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calc.Compute(tt.at, tt.receipt, tt.tier, tt.edu))
		})
	}
}

func TestCreditCalculator_Breakdown(t *testing.T) {
	calc := NewCreditCalculator(1.5)
	at := &model.ActionType{Title: "Bike to Campus", BaseCredits: 10}

	b := calc.Breakdown(at, 5.0, 1.5, 1.0)
	assert.Equal(t, int64(50), b.ReceiptCredits)
	assert.Equal(t, int64(60), b.TotalBase)
	assert.Equal(t, int64(90), b.Credits)
	assert.Equal(t, "Approved: Bike to Campus (Base:10 + Receipt:$5) x1.5 x1", b.Memo(at.Title))
}

func TestCreditCalculator_TierMultiplier(t *testing.T) {
	calc := NewCreditCalculator(0)

	m, err := calc.TierMultiplier(model.TierT1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, m)

	m, err = calc.TierMultiplier(model.TierT2)
	require.NoError(t, err)
	assert.Equal(t, 1.5, m)

	_, err = calc.TierMultiplier(model.Tier("T9"))
	assert.Error(t, err)
}

func TestThresholds_Decide(t *testing.T) {
	th := Thresholds{Approve: 2, Reject: 2}
	assert.Equal(t, DecisionPending, th.Decide(0, 0))
	assert.Equal(t, DecisionPending, th.Decide(1, 0))
	assert.Equal(t, DecisionApprove, th.Decide(2, 0))
	assert.Equal(t, DecisionPending, th.Decide(2, 1))
	assert.Equal(t, DecisionReject, th.Decide(1, 2))
	assert.Equal(t, DecisionReject, th.Decide(5, 2))
}
