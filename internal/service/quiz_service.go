package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/d60-Lab/green-credits/internal/model"
	"github.com/d60-Lab/green-credits/internal/repository"
)

// QuizResult 答题结果；通过时带回新的加成
type QuizResult struct {
	Attempt    *model.QuizAttempt    `json:"attempt"`
	Multiplier *model.UserMultiplier `json:"multiplier,omitempty"`
}

type QuizService struct {
	quizzes     repository.QuizRepository
	multipliers *MultiplierService
	clock       clockwork.Clock
}

func NewQuizService(quizzes repository.QuizRepository, multipliers *MultiplierService, clock clockwork.Clock) *QuizService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &QuizService{quizzes: quizzes, multipliers: multipliers, clock: clock}
}

// Submit grades answers; every answer must be correct to pass. A pass
// grants the quiz bonus multiplier.
func (s *QuizService) Submit(ctx context.Context, userID, quizID string, answers []int) (*QuizResult, error) {
	quiz, err := s.quizzes.Get(ctx, quizID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}

	questions := quiz.Questions.Data()
	if len(answers) != len(questions) {
		return nil, fmt.Errorf("%w: expected %d answers, got %d", ErrInvalidInput, len(questions), len(answers))
	}
	score := 0
	for i, q := range questions {
		if answers[i] == q.CorrectIndex {
			score++
		}
	}

	attempt := &model.QuizAttempt{
		ID:        uuid.New().String(),
		UserID:    userID,
		QuizID:    quizID,
		Score:     score,
		Total:     len(questions),
		Passed:    len(questions) > 0 && score == len(questions),
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.quizzes.CreateAttempt(ctx, attempt); err != nil {
		return nil, err
	}

	res := &QuizResult{Attempt: attempt}
	if attempt.Passed {
		m, err := s.multipliers.GrantQuizBonus(ctx, userID)
		if err != nil {
			return nil, err
		}
		res.Multiplier = m
	}
	return res, nil
}
