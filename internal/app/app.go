// Package app wires repositories and services from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/d60-Lab/green-credits/config"
	"github.com/d60-Lab/green-credits/internal/api/handler"
	"github.com/d60-Lab/green-credits/internal/repository"
	"github.com/d60-Lab/green-credits/internal/seed"
	"github.com/d60-Lab/green-credits/internal/service"
	"github.com/d60-Lab/green-credits/internal/similarity"
	"github.com/d60-Lab/green-credits/internal/storage"
)

// Deps 外部依赖；为空时按配置创建
type Deps struct {
	Clock      clockwork.Clock
	Uploader   storage.Uploader
	Similarity similarity.Store
	Redis      *redis.Client
}

// App 所有仓储与服务
type App struct {
	Users       repository.UserRepository
	ActionTypes repository.ActionTypeRepository
	Claims      repository.ClaimRepository
	Votes       repository.VoteRepository
	Ledgers     repository.LedgerRepository
	Multipliers repository.MultiplierRepository
	Rewards     repository.RewardRepository
	Quizzes     repository.QuizRepository
	Outbox      repository.OutboxRepository

	Uploader   storage.Uploader
	Similarity similarity.Store

	ClaimService      *service.ClaimService
	ReviewService     *service.ReviewService
	LedgerService     *service.LedgerService
	MultiplierService *service.MultiplierService
	RedemptionService *service.RedemptionService
	QuizService       *service.QuizService
	IndexWorker       *service.IndexWorker
}

func New(ctx context.Context, cfg *config.Config, db *gorm.DB, deps Deps) (*App, error) {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	uploader := deps.Uploader
	if uploader == nil {
		u, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		uploader = u
	}

	store := deps.Similarity
	if store == nil {
		s, err := similarity.New(cfg.Similarity, deps.Redis)
		if err != nil {
			return nil, fmt.Errorf("init similarity: %w", err)
		}
		store = s
	}

	a := &App{
		Users:       repository.NewUserRepository(db),
		ActionTypes: repository.NewActionTypeRepository(db),
		Claims:      repository.NewClaimRepository(db),
		Votes:       repository.NewVoteRepository(db),
		Ledgers:     repository.NewLedgerRepository(db),
		Multipliers: repository.NewMultiplierRepository(db),
		Rewards:     repository.NewRewardRepository(db),
		Quizzes:     repository.NewQuizRepository(db),
		Outbox:      repository.NewOutboxRepository(db),
		Uploader:    uploader,
		Similarity:  store,
	}

	a.IndexWorker = service.NewIndexWorker(a.Claims, a.Outbox, store, clock,
		cfg.Indexer.BatchSize, cfg.Indexer.Concurrency, cfg.Indexer.MaxAttempts)
	a.IndexWorker.SetLease(cfg.Indexer.Lease)
	a.LedgerService = service.NewLedgerService(a.Ledgers, clock)
	a.MultiplierService = service.NewMultiplierService(a.Multipliers, clock, cfg.Multiplier.QuizBonus, cfg.Multiplier.Duration)
	a.ClaimService = service.NewClaimService(a.ActionTypes, a.Claims, a.Outbox, uploader,
		service.NewHeuristicHints(clock), store,
		service.WithClaimClock(clock),
		service.WithUploadTimeout(cfg.Storage.UploadTimeout),
		service.WithIndexNotifier(a.IndexWorker),
	)
	a.ReviewService = service.NewReviewService(db, a.Users, a.Claims, a.Votes,
		a.LedgerService, a.MultiplierService,
		service.NewCreditCalculator(cfg.Review.TierMultiplier),
		service.Thresholds{Approve: cfg.Review.ApproveThreshold, Reject: cfg.Review.RejectThreshold},
		clock,
	)
	a.RedemptionService = service.NewRedemptionService(db, a.Rewards, a.Ledgers, a.LedgerService, clock)
	a.QuizService = service.NewQuizService(a.Quizzes, a.MultiplierService, clock)
	return a, nil
}

// SeedRepos exposes the repositories the seeder writes to.
func (a *App) SeedRepos() seed.Repos {
	return seed.Repos{Users: a.Users, ActionTypes: a.ActionTypes, Rewards: a.Rewards, Quizzes: a.Quizzes}
}

// Handler builds the HTTP handler over the app's services.
func (a *App) Handler() *handler.Handler {
	return handler.NewHandler(a.ClaimService, a.ReviewService, a.LedgerService,
		a.MultiplierService, a.RedemptionService, a.QuizService)
}
