package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/climate-station-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/climate-station-etl/internal/adapter/datamart"
	httpadapter "github.com/couchcryptid/climate-station-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/climate-station-etl/internal/adapter/kafka"
	"github.com/couchcryptid/climate-station-etl/internal/adapter/ledger"
	"github.com/couchcryptid/climate-station-etl/internal/adapter/parquet"
	"github.com/couchcryptid/climate-station-etl/internal/config"
	"github.com/couchcryptid/climate-station-etl/internal/domain"
	"github.com/couchcryptid/climate-station-etl/internal/observability"
	"github.com/couchcryptid/climate-station-etl/internal/pipeline"
	"github.com/couchcryptid/climate-station-etl/internal/scheduler"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	for _, job := range cfg.Jobs {
		if job.Kind == domain.Hourly && job.TimeZone == config.DefaultTimeZone {
			logger.Warn("hourly job uses the default time zone; Nova Scotia stations report in Atlantic time",
				"station", job.Station, "time_zone", job.TimeZone)
		}
	}

	sinks := []pipeline.Sink{csvfile.NewWriter(logger)}
	if cfg.WritesFormat("parquet") {
		pw, err := parquet.NewWriter(cfg.ParquetCompression, logger)
		if err != nil {
			logger.Error("invalid parquet settings", "error", err)
			return 1
		}
		sinks = append(sinks, pw)
	}
	if cfg.KafkaEnabled {
		publisher := kafkaadapter.NewPublisher(cfg, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		sinks = append(sinks, publisher)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	tracker := pipeline.NewTracker()
	opts := []pipeline.Option{
		pipeline.WithMaxConcurrent(cfg.MaxConcurrentDownloads),
		pipeline.WithTracker(tracker),
	}

	var history httpadapter.History
	if cfg.LedgerPath != "" {
		store, err := ledger.Open(cfg.LedgerPath, nil)
		if err != nil {
			logger.Error("failed to open run ledger", "error", err)
			return 1
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("run ledger close error", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithRecorder(store))
		history = store
		logger.Info("run ledger enabled", "path", cfg.LedgerPath)
	}

	client := datamart.NewClient(cfg.FetchTimeout, logger, metrics)
	runner := pipeline.New(client, client, sinks, logger, metrics, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.ScheduleCron == "" {
		if err := runner.RunAll(ctx, cfg.Jobs); err != nil {
			logger.Error("etl run failed", "error", err)
			return 1
		}
		logger.Info("etl run complete", "jobs", len(cfg.Jobs))
		return 0
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, runner, tracker, history, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	sched := scheduler.New(runner, cfg.Jobs, logger, metrics)
	if err := sched.Start(ctx, cfg.ScheduleCron); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		return 1
	}
	// First pass runs at startup rather than waiting for the first tick.
	go sched.RunNow()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler shutdown error", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return 0
}
