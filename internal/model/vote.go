package model

import "time"

// Vote 审核投票，(claim_id, reviewer_id) 唯一
type Vote struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ClaimID    string    `json:"claim_id" gorm:"type:varchar(36);not null;index:idx_vote_pair,unique"`
	ReviewerID string    `json:"reviewer_id" gorm:"type:varchar(36);not null;index:idx_vote_pair,unique"`
	Approve    bool      `json:"approve" gorm:"not null"`
	Reason     *string   `json:"reason,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Vote) TableName() string { return "claim_votes" }

// Tally counts approve and reject votes.
func Tally(votes []Vote) (approve, reject int) {
	for _, v := range votes {
		if v.Approve {
			approve++
		} else {
			reject++
		}
	}
	return approve, reject
}
