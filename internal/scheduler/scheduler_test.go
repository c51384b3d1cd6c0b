package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/green-credits/config"
	"github.com/d60-Lab/green-credits/internal/app"
	"github.com/d60-Lab/green-credits/internal/model"
	"github.com/d60-Lab/green-credits/internal/seed"
	"github.com/d60-Lab/green-credits/internal/service"
	"github.com/d60-Lab/green-credits/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Storage:    config.StorageConfig{Backend: "local", LocalDir: t.TempDir(), PublicPrefix: "/uploads"},
		Similarity: config.SimilarityConfig{Backend: "memory", Capacity: 100},
		Review:     config.ReviewConfig{ApproveThreshold: 2, RejectThreshold: 2, TierMultiplier: 1.5},
		Multiplier: config.MultiplierConfig{QuizBonus: 1.2, Duration: 24 * time.Hour, PurgeRetention: time.Hour},
		Indexer:    config.IndexerConfig{PollInterval: time.Minute, BatchSize: 10, Concurrency: 2, MaxAttempts: 3},
	}
}

func newApp(t *testing.T, cfg *config.Config, clock clockwork.Clock) *app.App {
	db := testutil.OpenDB(t)
	a, err := app.New(context.Background(), cfg, db, app.Deps{Clock: clock})
	require.NoError(t, err)
	require.NoError(t, seed.Run(context.Background(), a.SeedRepos()))
	return a
}

func TestNew_RegistersJobs(t *testing.T) {
	cfg := testConfig(t)
	clock := clockwork.NewFakeClock()
	a := newApp(t, cfg, clock)

	s, err := New(cfg, a.IndexWorker, a.MultiplierService, clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })
	assert.ElementsMatch(t, []string{JobIndexSweep}, s.JobNames())

	cfg.Multiplier.PurgeInterval = time.Hour
	s2, err := New(cfg, a.IndexWorker, a.MultiplierService, clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s2.Shutdown() })
	assert.ElementsMatch(t, []string{JobIndexSweep, JobMultiplierPurge}, s2.JobNames())
}

func TestSweepIndex_DrainsOutbox(t *testing.T) {
	cfg := testConfig(t)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	a := newApp(t, cfg, clock)
	ctx := context.Background()

	_, err := a.ClaimService.Submit(ctx, service.SubmitInput{
		UserID:      seed.DemoUserID,
		ActionCode:  "PUBLIC_TRANSIT",
		Description: "took the bus",
		OccurredAt:  clock.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	s, err := New(cfg, a.IndexWorker, a.MultiplierService, clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	s.sweepIndex()
	done, err := a.Outbox.CountByStatus(ctx, model.OutboxDone)
	require.NoError(t, err)
	assert.Equal(t, int64(1), done)
}

func TestPurgeMultipliers(t *testing.T) {
	cfg := testConfig(t)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	a := newApp(t, cfg, clock)
	ctx := context.Background()

	_, err := a.MultiplierService.GrantQuizBonus(ctx, seed.DemoUserID)
	require.NoError(t, err)
	clock.Advance(48 * time.Hour)

	s, err := New(cfg, a.IndexWorker, a.MultiplierService, clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })
	s.purgeMultipliers()

	_, err = a.Multipliers.Get(ctx, seed.DemoUserID)
	assert.Error(t, err)
}
