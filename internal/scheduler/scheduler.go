// Package scheduler runs the periodic background jobs: the similarity outbox
// sweep and the optional expired-multiplier purge.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/d60-Lab/green-credits/config"
	"github.com/d60-Lab/green-credits/internal/service"
	"github.com/d60-Lab/green-credits/pkg/logger"
)

const (
	JobIndexSweep      = "index-outbox-sweep"
	JobMultiplierPurge = "multiplier-purge"

	jobTimeout = time.Minute
)

type Scheduler struct {
	sched       gocron.Scheduler
	indexer     *service.IndexWorker
	multipliers *service.MultiplierService
	retention   time.Duration
}

// New registers the jobs without starting them. The purge job is only added
// when cfg.Multiplier.PurgeInterval is positive.
func New(cfg *config.Config, indexer *service.IndexWorker, multipliers *service.MultiplierService, clock clockwork.Clock) (*Scheduler, error) {
	opts := []gocron.SchedulerOption{}
	if clock != nil {
		opts = append(opts, gocron.WithClock(clock))
	}
	sched, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, err
	}
	s := &Scheduler{
		sched:       sched,
		indexer:     indexer,
		multipliers: multipliers,
		retention:   cfg.Multiplier.PurgeRetention,
	}

	if indexer != nil && cfg.Indexer.PollInterval > 0 {
		if _, err := sched.NewJob(
			gocron.DurationJob(cfg.Indexer.PollInterval),
			gocron.NewTask(s.sweepIndex),
			gocron.WithName(JobIndexSweep),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			_ = sched.Shutdown()
			return nil, err
		}
	}

	if multipliers != nil && cfg.Multiplier.PurgeInterval > 0 {
		if _, err := sched.NewJob(
			gocron.DurationJob(cfg.Multiplier.PurgeInterval),
			gocron.NewTask(s.purgeMultipliers),
			gocron.WithName(JobMultiplierPurge),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			_ = sched.Shutdown()
			return nil, err
		}
	}
	return s, nil
}

// JobNames lists the registered jobs.
func (s *Scheduler) JobNames() []string {
	jobs := s.sched.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}

func (s *Scheduler) Start() { s.sched.Start() }

func (s *Scheduler) Shutdown() error { return s.sched.Shutdown() }

func (s *Scheduler) sweepIndex() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	n, err := s.indexer.ProcessOnce(ctx)
	if err != nil {
		logger.Warn("index sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Debug("index sweep", zap.Int("indexed", n))
	}
}

func (s *Scheduler) purgeMultipliers() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	n, err := s.multipliers.Purge(ctx, s.retention)
	if err != nil {
		logger.Warn("multiplier purge failed", zap.Error(err))
		return
	}
	logger.Info("multiplier purge", zap.Int64("deleted", n))
}
