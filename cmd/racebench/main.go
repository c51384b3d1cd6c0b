package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/green-credits/config"
	"github.com/d60-Lab/green-credits/internal/app"
	"github.com/d60-Lab/green-credits/internal/seed"
	"github.com/d60-Lab/green-credits/internal/service"
	"github.com/d60-Lab/green-credits/pkg/database"
)

// racebench 并发压测两个竞争点：同一内容的重复提交、同一声明的并发投票。
// 期望：每组重复提交只产生 1 条声明；每条声明最多 1 条 MINT。
func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	k = max(0, min(k, len(xs)-1))
	return xs[k]
}

func main() {
	N := envInt("N", 200)
	CONC := envInt("CONC", 8)

	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		panic(err)
	}

	ctx := context.Background()
	a := must(app.New(ctx, cfg, db, app.Deps{}))
	if err := seed.Run(ctx, a.SeedRepos()); err != nil {
		panic(err)
	}
	run := uuid.NewString()[:8]

	// phase 1: CONC identical submissions per round
	var (
		mu        sync.Mutex
		submitLat []time.Duration
		created   []string
		dups      int
		otherErrs int
	)
	t0 := time.Now()
	for i := 0; i < N; i++ {
		in := service.SubmitInput{
			UserID:      seed.DemoUserID,
			ActionCode:  "BIKE_TO_CAMPUS",
			Description: fmt.Sprintf("rode to campus %s-%d", run, i),
			OccurredAt:  time.Now(),
		}
		var wg sync.WaitGroup
		for w := 0; w < CONC; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				st := time.Now()
				c, err := a.ClaimService.Submit(ctx, in)
				d := time.Since(st)
				mu.Lock()
				defer mu.Unlock()
				submitLat = append(submitLat, d)
				switch {
				case err == nil:
					created = append(created, c.ID)
				case errors.Is(err, service.ErrDuplicateClaim):
					dups++
				default:
					otherErrs++
				}
			}()
		}
		wg.Wait()
	}
	submitDur := time.Since(t0)

	// phase 2: every reviewer approves every claim of this run concurrently
	reviewers := []string{seed.DemoReviewer1ID, seed.DemoReviewer2ID, seed.DemoAdminID}
	var (
		voteLat    []time.Duration
		notPending int
		voteErrs   int
	)
	t1 := time.Now()
	for _, id := range created {
		var wg sync.WaitGroup
		for _, rid := range reviewers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				st := time.Now()
				_, err := a.ReviewService.CastVote(ctx, id, rid, true, nil)
				d := time.Since(st)
				mu.Lock()
				defer mu.Unlock()
				voteLat = append(voteLat, d)
				switch {
				case err == nil:
				case errors.Is(err, service.ErrClaimNotPending):
					notPending++
				default:
					voteErrs++
				}
			}()
		}
		wg.Wait()
	}
	voteDur := time.Since(t1)

	violations := 0
	for _, id := range created {
		n := must(a.Ledgers.CountByClaim(ctx, id))
		if n > 1 {
			violations++
		}
	}
	wallet := must(a.LedgerService.Wallet(ctx, seed.DemoUserID))
	balance := must(a.LedgerService.Balance(ctx, seed.DemoUserID))

	fmt.Printf("N=%d, CONC=%d, driver=%s\n", N, CONC, cfg.Database.Driver)
	fmt.Printf("Submit: total=%v created=%d duplicates=%d errors=%d p50=%v p95=%v p99=%v\n",
		submitDur, len(created), dups, otherErrs, pct(submitLat, 0.50), pct(submitLat, 0.95), pct(submitLat, 0.99))
	fmt.Printf("Vote: total=%v claims=%d late(not pending)=%d errors=%d p50=%v p95=%v p99=%v\n",
		voteDur, len(created), notPending, voteErrs, pct(voteLat, 0.50), pct(voteLat, 0.95), pct(voteLat, 0.99))
	fmt.Printf("Ledger: balance=%d statement_sum=%d double_mint_claims=%d\n", balance, wallet.Balance, violations)

	if len(created) != N || violations > 0 || balance != wallet.Balance {
		os.Exit(1)
	}
}
