package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shiplogix/logistics-backend/api/routes"
	"github.com/shiplogix/logistics-backend/internal/capacity"
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

const (
	serviceKind     = "api"
	shutdownTimeout = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceKind})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind
	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": ":" + cfg.App.Port,
	})

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

type domainServices struct {
	shipments shipments.Service
	capacity  capacity.Service
	forecast  forecast.Service
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*domainServices, error) {
	workflowMetrics := metrics.NewWorkflowMetrics(prometheus.DefaultRegisterer)
	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	shipmentRepo := shipments.NewRepository(dbClient.DB())

	shipmentSvc, err := shipments.NewService(shipments.ServiceParams{
		Repo:    shipmentRepo,
		Tx:      dbClient,
		Outbox:  outboxSvc,
		Logger:  logg,
		Metrics: workflowMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("shipment service: %w", err)
	}

	capacitySvc, err := capacity.NewService(capacity.ServiceParams{
		Repo:    capacity.NewRepository(dbClient.DB()),
		Tx:      dbClient,
		Outbox:  outboxSvc,
		Logger:  logg,
		Metrics: workflowMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("capacity service: %w", err)
	}

	forecastSvc, err := forecast.NewService(forecast.ParamsFromConfig(cfg.Forecast), shipmentRepo, capacitySvc, logg, nil)
	if err != nil {
		return nil, fmt.Errorf("forecast service: %w", err)
	}

	return &domainServices{shipments: shipmentSvc, capacity: capacitySvc, forecast: forecastSvc}, nil
}

// run owns every resource so deferred cleanup happens before main exits.
func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer closeWith(ctx, logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer closeWith(ctx, logg, "redis", redisClient.Close)

	svcs, err := buildServices(cfg, logg, dbClient)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr: ":" + cfg.App.Port,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			redisClient,
			prometheus.DefaultGatherer,
			svcs.shipments,
			svcs.capacity,
			svcs.forecast,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(ctx, logg, server)
}

// serve blocks until the listener fails or ctx ends, then drains in-flight
// requests for up to shutdownTimeout.
func serve(ctx context.Context, logg *logger.Logger, server *http.Server) error {
	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func closeWith(ctx context.Context, logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(logg.WithField(ctx, "resource", name), "close failed", err)
	}
}
