package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/warrantywise/warranty-api/config"
	"github.com/warrantywise/warranty-api/internal/engine"
	"github.com/warrantywise/warranty-api/internal/notifier"
	"github.com/warrantywise/warranty-api/internal/repository/postgres"
	"github.com/warrantywise/warranty-api/pkg/logger"
	"github.com/warrantywise/warranty-api/pkg/messaging/redis"
	"github.com/warrantywise/warranty-api/pkg/metrics"
)

// Standalone scan process for deployments that keep the HTTP API and the
// lifecycle engine separate. Safe to run alongside an API instance with an
// embedded engine: the dispatch ledger's atomic insert is the correctness
// backstop against duplicate sends.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("warranty", "worker")

	base := postgres.NewBaseRepository(db)
	warrantyRepo := postgres.NewWarrantyRepository(base)
	dispatchRepo := postgres.NewDispatchLogRepository(base)

	var reminderNotifier notifier.Notifier
	switch cfg.Notifier.Channel {
	case "push":
		zl := log.Logger
		broker, err := redis.NewRedisBroker(redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, &zl)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
		reminderNotifier = notifier.NewPushNotifier(broker)
	default:
		reminderNotifier = notifier.NewEmailNotifier(notifier.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	lifecycleEngine, err := engine.New(warrantyRepo, dispatchRepo, reminderNotifier, engine.SystemClock(), engine.Config{
		ScanInterval:       cfg.Engine.ScanInterval,
		ExpiringSoonWindow: cfg.Engine.ExpiringSoonWindow,
		ThresholdDays:      cfg.Engine.ThresholdDays,
		Workers:            cfg.Engine.Workers,
		BatchSize:          cfg.Engine.BatchSize,
		ConflictRetries:    cfg.Engine.ConflictRetries,
	}, appLogger, appMetrics)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid engine configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go lifecycleEngine.Start(ctx)

	// Metrics endpoint for the scan process
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Port+1), nil); err != nil {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down worker...")
	cancel()
}
