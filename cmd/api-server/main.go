package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vetcal/scheduling-service/internal/api"
	"github.com/vetcal/scheduling-service/internal/config"
	"github.com/vetcal/scheduling-service/internal/db"
	"github.com/vetcal/scheduling-service/internal/observability/metrics"
	redisclient "github.com/vetcal/scheduling-service/internal/redis"
	"github.com/vetcal/scheduling-service/internal/schedule"
	"github.com/vetcal/scheduling-service/pkg/logging"
)

const version = "0.3.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("running", "env", cfg.Env, "http_port", cfg.HTTPPort)

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

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis", "error", err)
		}
	}()
	logger.Info("connected to Redis")

	repo := schedule.NewPgRepository(pgPool)
	locker := redisclient.NewRedisBookingLocker(rdb, cfg.BookingLockTTL)
	schedMetrics := metrics.NewSchedulingMetrics(prometheus.DefaultRegisterer)

	queryService := schedule.NewQueryService(schedule.QueryServiceParams{
		Availability: repo,
		Appointments: repo,
		Logger:       logger,
		Metrics:      schedMetrics,
		SlotMinutes:  cfg.SlotMinutes,
		MaxOffers:    cfg.MaxSlotOffers,
		ScanDayCap:   cfg.ScanDayCap,
	})
	bookingService := schedule.NewBookingService(schedule.BookingServiceParams{
		Availability:   repo,
		Appointments:   repo,
		Directory:      repo,
		Locker:         locker,
		Logger:         logger,
		Metrics:        schedMetrics,
		DefaultMinutes: cfg.DefaultApptMins,
	})

	router := api.NewRouter(api.RouterConfig{
		Query:        queryService,
		Booking:      bookingService,
		Availability: repo,
		Appointments: repo,
		Logger:       logger,
		Metrics:      schedMetrics,
		PgPool:       pgPool,
		Redis:        rdb,
		Env:          cfg.Env,
		Version:      version,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("api-server stopped")
}
