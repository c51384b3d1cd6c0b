package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/green-credits/internal/model"
	"github.com/d60-Lab/green-credits/internal/repository"
	"github.com/d60-Lab/green-credits/internal/seed"
	"github.com/d60-Lab/green-credits/internal/similarity"
	"github.com/d60-Lab/green-credits/internal/testutil"
)

var t0 = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

type fakeUploader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeUploader) Upload(ctx context.Context, data []byte, filename, mimeType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example.com/evidence/" + filename, nil
}

type countingNotifier struct {
	mu sync.Mutex
	n  int
}

func (c *countingNotifier) Notify() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

type failingHints struct{ panics bool }

func (f failingHints) Analyze(string, string, time.Time) (model.HintReport, error) {
	if f.panics {
		panic("model exploded")
	}
	return model.HintReport{}, errors.New("model unavailable")
}

type fixture struct {
	db       *gorm.DB
	clock    *clockwork.FakeClock
	uploader *fakeUploader
	notifier *countingNotifier
	store    *similarity.MemoryStore

	users       repository.UserRepository
	actionTypes repository.ActionTypeRepository
	claimRepo   repository.ClaimRepository
	ledgerRepo  repository.LedgerRepository
	rewardRepo  repository.RewardRepository
	outbox      repository.OutboxRepository

	claims      *ClaimService
	reviews     *ReviewService
	ledger      *LedgerService
	multipliers *MultiplierService
	redemptions *RedemptionService
	quizzes     *QuizService
	worker      *IndexWorker
}

func newFixture(t *testing.T, hints ...HintGenerator) *fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	clock := clockwork.NewFakeClockAt(t0)
	store, err := similarity.NewMemoryStore(100)
	require.NoError(t, err)

	f := &fixture{
		db:          db,
		clock:       clock,
		uploader:    &fakeUploader{},
		notifier:    &countingNotifier{},
		store:       store,
		users:       repository.NewUserRepository(db),
		actionTypes: repository.NewActionTypeRepository(db),
		claimRepo:   repository.NewClaimRepository(db),
		ledgerRepo:  repository.NewLedgerRepository(db),
		rewardRepo:  repository.NewRewardRepository(db),
		outbox:      repository.NewOutboxRepository(db),
	}
	quizRepo := repository.NewQuizRepository(db)
	require.NoError(t, seed.Run(context.Background(), seed.Repos{
		Users:       f.users,
		ActionTypes: f.actionTypes,
		Rewards:     f.rewardRepo,
		Quizzes:     quizRepo,
	}))

	var hg HintGenerator = NewHeuristicHints(clock)
	if len(hints) > 0 {
		hg = hints[0]
	}

	f.worker = NewIndexWorker(f.claimRepo, f.outbox, store, clock, 10, 2, 3)
	f.ledger = NewLedgerService(f.ledgerRepo, clock)
	f.multipliers = NewMultiplierService(repository.NewMultiplierRepository(db), clock, 1.2, 24*time.Hour)
	f.claims = NewClaimService(f.actionTypes, f.claimRepo, f.outbox, f.uploader, hg, store,
		WithClaimClock(clock),
		WithUploadTimeout(time.Second),
		WithIndexNotifier(f.notifier),
	)
	f.reviews = NewReviewService(db, f.users, f.claimRepo, repository.NewVoteRepository(db),
		f.ledger, f.multipliers, NewCreditCalculator(1.5), Thresholds{Approve: 2, Reject: 2}, clock)
	f.redemptions = NewRedemptionService(db, f.rewardRepo, f.ledgerRepo, f.ledger, clock)
	f.quizzes = NewQuizService(quizRepo, f.multipliers, clock)
	return f
}

// submit files a BIKE_TO_CAMPUS claim for the demo user an hour before t0.
func (f *fixture) submit(t *testing.T, description string, amount *float64) *model.Claim {
	t.Helper()
	c, err := f.claims.Submit(context.Background(), SubmitInput{
		UserID:      seed.DemoUserID,
		ActionCode:  "BIKE_TO_CAMPUS",
		Description: description,
		OccurredAt:  t0.Add(-time.Hour),
		Amount:      amount,
	})
	require.NoError(t, err)
	return c
}

func ptr[T any](v T) *T { return &v }
