package model

import "time"

// TxType 账本流水类型
type TxType string

const (
	TxTypeMint   TxType = "MINT"
	TxTypeRedeem TxType = "REDEEM"
	TxTypeAdjust TxType = "ADJUST"
)

// LedgerTransaction 只追加的积分流水；余额 = Σ amount
type LedgerTransaction struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AccountID    string    `json:"account_id" gorm:"type:varchar(36);not null;index:idx_ledger_account_created"`
	Type         TxType    `json:"type" gorm:"type:varchar(16);not null"`
	Amount       int64     `json:"amount" gorm:"not null"`
	ClaimID      *string   `json:"claim_id,omitempty" gorm:"type:varchar(36);uniqueIndex"`
	RedemptionID *string   `json:"redemption_id,omitempty" gorm:"type:varchar(36);uniqueIndex"`
	Memo         string    `json:"memo" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at" gorm:"index:idx_ledger_account_created;not null"`

	Claim      *Claim      `json:"-" gorm:"foreignKey:ClaimID"`
	Redemption *Redemption `json:"-" gorm:"foreignKey:RedemptionID"`
}

func (LedgerTransaction) TableName() string { return "ledger_transactions" }
