package model

import (
	"time"

	"gorm.io/datatypes"
)

// ClaimStatus 声明状态：PENDING -> APPROVED | REJECTED（终态）
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "PENDING"
	ClaimStatusApproved ClaimStatus = "APPROVED"
	ClaimStatusRejected ClaimStatus = "REJECTED"
)

// Terminal reports whether no further transition is allowed.
func (s ClaimStatus) Terminal() bool {
	switch s {
	case ClaimStatusApproved, ClaimStatusRejected:
		return true
	case ClaimStatusPending:
		return false
	default:
		// unknown values are never mutated
		return true
	}
}

// Tier 核验等级
type Tier string

const (
	TierT1 Tier = "T1"
	TierT2 Tier = "T2"
)

// HintReport is the heuristic analysis stored with a claim. ReceiptAmount is
// read back by the credit calculator at approval time.
type HintReport struct {
	LabelGuess      string            `json:"label_guess"`
	Confidence      float64           `json:"confidence"`
	ExtractedFields map[string]string `json:"extracted_fields,omitempty"`
	Warnings        []string          `json:"warnings"`
	ReceiptAmount   float64           `json:"receipt_amount,omitempty"`
}

// Claim 用户提交的环保行为声明
type Claim struct {
	ID             string                          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID         string                          `json:"user_id" gorm:"type:varchar(36);not null;index:idx_claim_user_submitted;uniqueIndex:idx_claim_dedup,priority:1"`
	ActionTypeID   string                          `json:"action_type_id" gorm:"type:varchar(36);not null"`
	ActionType     *ActionType                     `json:"action_type,omitempty" gorm:"foreignKey:ActionTypeID"`
	Description    string                          `json:"description" gorm:"type:text;not null"`
	OccurredAt     time.Time                       `json:"occurred_at" gorm:"not null"`
	EvidenceURL    *string                         `json:"evidence_url,omitempty" gorm:"type:text"`
	Fingerprint    string                          `json:"fingerprint" gorm:"type:varchar(64);not null;uniqueIndex:idx_claim_dedup,priority:3"`
	TimeBucket     string                          `json:"time_bucket" gorm:"type:varchar(16);not null;uniqueIndex:idx_claim_dedup,priority:2"`
	Status         ClaimStatus                     `json:"status" gorm:"type:varchar(16);not null;index;default:'PENDING'"`
	Tier           Tier                            `json:"verification_tier" gorm:"type:varchar(4);not null;default:'T1'"`
	CreditsAwarded *int64                          `json:"credits_awarded,omitempty"`
	Hint           *datatypes.JSONType[HintReport] `json:"hint,omitempty" gorm:"type:text"`
	SubmittedAt    time.Time                       `json:"submitted_at" gorm:"index:idx_claim_user_submitted;not null"`
	UpdatedAt      time.Time                       `json:"updated_at"`

	Votes []Vote `json:"votes,omitempty" gorm:"foreignKey:ClaimID"`
}

func (Claim) TableName() string { return "claims" }

// ReceiptAmount returns the receipt amount recorded at submission, or 0.
func (c *Claim) ReceiptAmount() float64 {
	if c.Hint == nil {
		return 0
	}
	return c.Hint.Data().ReceiptAmount
}
