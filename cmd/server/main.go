package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"adsync/internal/delivery"
	"adsync/internal/domain"
	"adsync/internal/infrastructure"
	"adsync/internal/usecase"
	"adsync/pkg/config"
	"adsync/pkg/logger"
	"adsync/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Info("Starting adsync server")

	m := metrics.New()

	var (
		connRepo   domain.ConnectionRepository
		metricRepo domain.MetricRepository
	)
	if cfg.Storage.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.Storage.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Postgres")
		}
		defer pool.Close()
		connRepo = infrastructure.NewPostgresConnectionRepository(pool)
		metricRepo = infrastructure.NewPostgresMetricRepository(pool)
		log.Info("Using Postgres storage")
	} else {
		connRepo = infrastructure.NewMemoryConnectionRepository(log)
		metricRepo = infrastructure.NewMemoryMetricRepository(log)
		log.Info("Using in-memory storage")
	}

	var lock domain.SyncLock
	if cfg.Storage.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Storage.RedisAddr})
		lock = infrastructure.NewRedisSyncLock(client, cfg.Sync.LockTTL)
		log.Info("Using Redis sync lock")
	} else {
		lock = infrastructure.NewMemorySyncLock()
	}

	platformClient := infrastructure.NewPlatformClient(
		cfg.Platform.BaseURL,
		cfg.Sync.RequestTimeout,
		cfg.Platform.RateLimitPerSecond,
		log, m,
	)

	poller := usecase.NewPoller(platformClient, cfg.Sync.PollInterval, cfg.Sync.PollMaxAttempts, log, m)
	syncService := usecase.NewSyncService(connRepo, metricRepo, platformClient, poller, lock, log, m, cfg.Platform.ReportTp)
	dashboardService := usecase.NewDashboardService(metricRepo, log, m)

	if cfg.Sync.CronSpec != "" {
		scheduler := usecase.NewScheduler(syncService, connRepo, log)
		if err := scheduler.Start(cfg.Sync.CronSpec); err != nil {
			log.WithError(err).Fatal("Failed to start sync scheduler")
		}
		defer scheduler.Stop()
	}

	handlers := delivery.NewHTTPHandlers(syncService, dashboardService, connRepo, log, m)
	router := delivery.NewHTTPRouter(handlers, log, m)

	engine := router.SetupRoutes()
	if err := engine.Run(":" + cfg.Server.Port); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}
