package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/green-credits/config"
	"github.com/d60-Lab/green-credits/internal/api/middleware"
	"github.com/d60-Lab/green-credits/internal/app"
	"github.com/d60-Lab/green-credits/internal/seed"
	"github.com/d60-Lab/green-credits/pkg/database"
	"github.com/d60-Lab/green-credits/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return v
}

func main() {
	tokens := flag.Bool("tokens", false, "print demo JWTs after seeding")
	flag.Parse()

	cfg := must(config.Load())
	_ = logger.Init(cfg.Log)
	defer logger.Sync()

	ctx := context.Background()
	db := must(database.InitDB(cfg))
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		logger.Error("migrate failed", zap.Error(err))
		os.Exit(1)
	}

	a := must(app.New(ctx, cfg, db, app.Deps{}))
	if err := seed.Run(ctx, a.SeedRepos()); err != nil {
		logger.Error("seed failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("seed complete",
		zap.Int("action_types", len(seed.ActionTypes())),
		zap.Int("users", len(seed.Users())),
		zap.Int("rewards", len(seed.Rewards())),
	)

	if *tokens {
		for _, u := range seed.Users() {
			tok := must(middleware.IssueToken(cfg.JWT, u.ID, u.Role, 7*24*time.Hour))
			fmt.Printf("%-16s %-9s %s\n", u.ID, u.Role, tok)
		}
	}
}
