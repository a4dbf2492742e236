package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/vetcal/scheduling-service/internal/config"
	"github.com/vetcal/scheduling-service/internal/db"
	"github.com/vetcal/scheduling-service/internal/schedule"
	"github.com/vetcal/scheduling-service/pkg/logging"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("noshow-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("running no-show sweeper", "env", cfg.Env, "interval", cfg.WorkerInterval, "grace", cfg.NoShowGrace)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	repo := schedule.NewPgRepository(pgPool)
	sweeper := schedule.NewNoShowSweeper(repo, nil, cfg.NoShowGrace, logger)

	// Run once at startup
	runOnce(rootCtx, sweeper, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping no-show sweeper")
			return
		case <-ticker.C:
			runOnce(rootCtx, sweeper, logger)
		}
	}
}

func runOnce(ctx context.Context, sweeper *schedule.NoShowSweeper, logger *logging.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	flagged, err := sweeper.Sweep(runCtx)
	if err != nil {
		logger.Error("sweep run error", "error", err)
		return
	}
	logger.Info("sweep run complete", "flagged", flagged, "took", time.Since(start).String())
}
