package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/warrantywise/warranty-api/config"
	"github.com/warrantywise/warranty-api/internal/engine"
	"github.com/warrantywise/warranty-api/internal/handler"
	adminHandler "github.com/warrantywise/warranty-api/internal/handler/admin"
	authHandler "github.com/warrantywise/warranty-api/internal/handler/auth"
	warrantyHandler "github.com/warrantywise/warranty-api/internal/handler/warranty"
	"github.com/warrantywise/warranty-api/internal/middleware"
	"github.com/warrantywise/warranty-api/internal/notifier"
	"github.com/warrantywise/warranty-api/internal/repository/postgres"
	"github.com/warrantywise/warranty-api/internal/router"
	adminService "github.com/warrantywise/warranty-api/internal/service/admin"
	authService "github.com/warrantywise/warranty-api/internal/service/auth"
	warrantyService "github.com/warrantywise/warranty-api/internal/service/warranty"
	"github.com/warrantywise/warranty-api/pkg/logger"
	"github.com/warrantywise/warranty-api/pkg/messaging/redis"
	"github.com/warrantywise/warranty-api/pkg/metrics"
	"github.com/warrantywise/warranty-api/pkg/security"
)

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
	appMetrics := metrics.NewMetrics("warranty", "api")
	clock := engine.SystemClock()

	// Repositories
	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	warrantyRepo := postgres.NewWarrantyRepository(base)
	dispatchRepo := postgres.NewDispatchLogRepository(base)

	// Notifier channel selection
	reminderNotifier, err := buildNotifier(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build notifier")
	}

	// Services
	authSvc := authService.NewService(userRepo, security.NewBcryptHasher(12), authService.Config{
		Secret:      cfg.JWT.Secret,
		ExpiryHours: cfg.JWT.ExpiryHours,
	})
	warrantySvc := warrantyService.NewService(warrantyRepo, dispatchRepo, clock, cfg.Engine.ExpiringSoonWindow)
	adminSvc := adminService.NewService(userRepo, warrantyRepo, dispatchRepo, cfg.Stats.CacheTTL)

	// Lifecycle engine
	lifecycleEngine, err := engine.New(warrantyRepo, dispatchRepo, reminderNotifier, clock, engine.Config{
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

	// Handlers and router
	authMiddleware := middleware.NewAuthMiddleware(authSvc)
	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		warrantyHandler.NewHandler(warrantySvc),
		adminHandler.NewHandler(adminSvc),
		handler.NewHandler(db),
		router.RouterConfig{
			RateLimit: rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst: cfg.RateLimit.Burst,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	engineCtx, stopEngine := context.WithCancel(context.Background())
	go lifecycleEngine.Start(engineCtx)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	stopEngine()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

func buildNotifier(cfg *config.Config) (notifier.Notifier, error) {
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
			return nil, err
		}
		return notifier.NewPushNotifier(broker), nil
	default:
		return notifier.NewEmailNotifier(notifier.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}), nil
	}
}
