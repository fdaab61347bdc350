package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shiplogix/logistics-backend/internal/capacity"
	"github.com/shiplogix/logistics-backend/internal/cron"
	"github.com/shiplogix/logistics-backend/internal/forecast"
	"github.com/shiplogix/logistics-backend/internal/shipments"
	"github.com/shiplogix/logistics-backend/pkg/config"
	"github.com/shiplogix/logistics-backend/pkg/db"
	"github.com/shiplogix/logistics-backend/pkg/logger"
	"github.com/shiplogix/logistics-backend/pkg/metrics"
	"github.com/shiplogix/logistics-backend/pkg/migrate"
	"github.com/shiplogix/logistics-backend/pkg/outbox"
	"github.com/shiplogix/logistics-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	only := flag.String("jobs", "", "comma-separated job names to run (default: all)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	workflowMetrics := metrics.NewWorkflowMetrics(prometheus.DefaultRegisterer)
	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxSvc := outbox.NewService(outboxRepo, logg)
	shipmentRepo := shipments.NewRepository(dbClient.DB())

	shipmentSvc, err := shipments.NewService(shipments.ServiceParams{
		Repo:    shipmentRepo,
		Tx:      dbClient,
		Outbox:  outboxSvc,
		Logger:  logg,
		Metrics: workflowMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create shipment service", err)
		os.Exit(1)
	}

	capacitySvc, err := capacity.NewService(capacity.ServiceParams{
		Repo:    capacity.NewRepository(dbClient.DB()),
		Tx:      dbClient,
		Outbox:  outboxSvc,
		Logger:  logg,
		Metrics: workflowMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create capacity service", err)
		os.Exit(1)
	}

	forecastSvc, err := forecast.NewService(forecast.ParamsFromConfig(cfg.Forecast), shipmentRepo, capacitySvc, logg, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create forecast service", err)
		os.Exit(1)
	}

	alertJob, err := cron.NewCapacityAlertJob(cron.CapacityAlertJobParams{
		Logger:   logg,
		DB:       dbClient,
		Forecast: forecastSvc,
		Outbox:   outboxSvc,
		Metrics:  workflowMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create capacity alert job", err)
		os.Exit(1)
	}

	archiveJob, err := cron.NewStoredArchiveJob(cron.StoredArchiveJobParams{
		Logger:    logg,
		Reader:    shipmentRepo,
		Shipments: shipmentSvc,
		AfterDays: cfg.Cron.StoredArchiveAfterDays,
		BatchSize: cfg.Cron.StoredArchiveBatch,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stored archive job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:           logg,
		DB:               dbClient,
		Outbox:           outboxRepo,
		RetentionDays:    cfg.Cron.OutboxRetentionDays,
		TerminalAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redis.LockKey("cron-worker:"+lockEnv(cfg.App.Env)), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry, err := cron.NewRegistry(alertJob, archiveJob, retentionJob)
	if err == nil {
		registry, err = registry.Select(splitJobs(*only)...)
	}
	if err != nil {
		logg.Error(context.Background(), "failed to build job registry", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Cron.Interval,
		JobTimeout: lock.TTL(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"interval":    cfg.Cron.Interval.String(),
	})

	if *once {
		logg.Info(ctx, "running cron jobs once")
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func splitJobs(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return strings.Split(value, ",")
}

func lockEnv(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
