package model

import (
	"time"

	"gorm.io/datatypes"
)

type QuizQuestion struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// Quiz 环保知识小测，通过后获得临时积分加成
type Quiz struct {
	ID        string                             `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title     string                             `json:"title" gorm:"type:varchar(128);not null;uniqueIndex"`
	Questions datatypes.JSONType[[]QuizQuestion] `json:"questions" gorm:"type:text;not null"`
	CreatedAt time.Time                          `json:"created_at"`
}

func (Quiz) TableName() string { return "quizzes" }

type QuizAttempt struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);not null;index"`
	QuizID    string    `json:"quiz_id" gorm:"type:varchar(36);not null;index"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
	Passed    bool      `json:"passed"`
	CreatedAt time.Time `json:"created_at"`
}

func (QuizAttempt) TableName() string { return "quiz_attempts" }
