package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/loyaltyhub-backend/internal/cron"
	sweepsvc "github.com/angelmondragon/loyaltyhub-backend/internal/sweepstakes"
	"github.com/angelmondragon/loyaltyhub-backend/internal/transactions"
	"github.com/angelmondragon/loyaltyhub-backend/internal/users"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/config"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/db"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/logger"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/metrics"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/migrate"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/redis"
)

const lockKeyFormat = "lh:cron-worker:lock:%s"

func main() {
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
		Level:       logger.ParseLevel(cfg.App.LogLevel),
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sweepstakesRepo := sweepsvc.NewRepository(dbClient.DB())
	sweepstakesService, err := sweepsvc.NewService(sweepsvc.ServiceParams{
		Logger:       logg,
		DB:           dbClient,
		Sweepstakes:  sweepstakesRepo,
		Users:        users.NewRepository(dbClient.DB()),
		Transactions: transactions.NewRepository(dbClient.DB()),
		MaxEntries:   cfg.Loyalty.MaxEntriesPerRequest,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sweepstakes service", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	activateJob, err := cron.NewSweepstakesActivateJob(cron.SweepstakesActivateJobParams{
		Logger:      logg,
		Sweepstakes: sweepstakesRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create activation job", err)
		os.Exit(1)
	}
	closeJob, err := cron.NewSweepstakesCloseJob(cron.SweepstakesCloseJobParams{
		Logger:      logg,
		Sweepstakes: sweepstakesRepo,
		Winners:     sweepstakesService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create close job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	registry.Register(activateJob)
	registry.Register(closeJob)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.TickInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.Cron.MetricsPort != "" {
		metricsServer := &http.Server{
			Addr:    ":" + cfg.Cron.MetricsPort,
			Handler: promhttp.Handler(),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(context.Background(), "metrics listener stopped", err)
			}
		}()
		defer func() {
			if err := metricsServer.Shutdown(context.Background()); err != nil {
				logg.Error(context.Background(), "error shutting down metrics listener", err)
			}
		}()
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
