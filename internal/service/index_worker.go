package service

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/d60-Lab/green-credits/internal/model"
	"github.com/d60-Lab/green-credits/internal/repository"
	"github.com/d60-Lab/green-credits/internal/similarity"
	"github.com/d60-Lab/green-credits/pkg/logger"
)

// IndexWorker 从 index_outbox 拉取已提交的声明并写入相似检索（尽力而为，不影响声明状态）
type IndexWorker struct {
	claims      repository.ClaimRepository
	outbox      repository.OutboxRepository
	store       similarity.Store
	clock       clockwork.Clock
	batchSize   int
	concurrency int
	maxAttempts int
	lease       time.Duration
	wake        chan struct{}
}

// DefaultOutboxLease is how long a claimed outbox row may stay in processing
// before another pass takes it back.
const DefaultOutboxLease = 5 * time.Minute

const markTimeout = 5 * time.Second

func NewIndexWorker(claims repository.ClaimRepository, outbox repository.OutboxRepository, store similarity.Store, clock clockwork.Clock, batchSize, concurrency, maxAttempts int) *IndexWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &IndexWorker{
		claims:      claims,
		outbox:      outbox,
		store:       store,
		clock:       clock,
		batchSize:   batchSize,
		concurrency: concurrency,
		maxAttempts: maxAttempts,
		lease:       DefaultOutboxLease,
		wake:        make(chan struct{}, 1),
	}
}

// SetLease overrides DefaultOutboxLease; non-positive values are ignored.
func (w *IndexWorker) SetLease(d time.Duration) {
	if d > 0 {
		w.lease = d
	}
}

// Notify 非阻塞唤醒；已有待处理信号时直接丢弃
func (w *IndexWorker) Notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Start drains the outbox whenever Notify is called, until ctx is done.
// Periodic sweeps are driven by the scheduler calling ProcessOnce.
func (w *IndexWorker) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.wake:
				if _, err := w.ProcessOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Warn("index worker pass failed", zap.Error(err))
				}
			}
		}
	}()
}

// ProcessOnce claims one batch and publishes it. It returns how many rows
// were indexed successfully.
func (w *IndexWorker) ProcessOnce(ctx context.Context) (int, error) {
	batch, err := w.outbox.ClaimBatch(ctx, w.batchSize, w.clock.Now(), w.lease)
	if err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, nil
	}

	// status updates must land even when ctx is cancelled mid-batch
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markTimeout)
	defer cancel()

	done := make([]bool, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, ob := range batch {
		g.Go(func() error {
			if err := w.publish(gctx, ob); err != nil {
				logger.Warn("similarity index failed",
					zap.String("claim_id", ob.ClaimID),
					zap.Int("attempts", ob.Attempts+1),
					zap.Error(err))
				if mErr := w.outbox.MarkRetry(markCtx, ob.ID, err.Error(), w.maxAttempts); mErr != nil {
					logger.Warn("outbox retry update failed", zap.String("id", ob.ID), zap.Error(mErr))
				}
				return nil
			}
			if err := w.outbox.MarkDone(markCtx, ob.ID, w.clock.Now().UTC()); err != nil {
				logger.Warn("outbox done update failed", zap.String("id", ob.ID), zap.Error(err))
				return nil
			}
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, ok := range done {
		if ok {
			n++
		}
	}
	return n, nil
}

func (w *IndexWorker) publish(ctx context.Context, ob *model.IndexOutbox) error {
	if w.store == nil {
		return errors.New("no similarity store configured")
	}
	c, err := w.claims.GetByID(ctx, ob.ClaimID)
	if err != nil {
		return err
	}
	meta := map[string]string{
		"user_id":     c.UserID,
		"occurred_at": c.OccurredAt.UTC().Format(time.RFC3339),
	}
	if c.ActionType != nil {
		meta["action_code"] = c.ActionType.Code
	}
	return w.store.Index(ctx, c.ID, IndexText(c), meta)
}
