package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/minsukang/dalligo-backend/internal/cron"
	"github.com/minsukang/dalligo-backend/internal/matching"
	"github.com/minsukang/dalligo-backend/internal/notifications"
	"github.com/minsukang/dalligo-backend/internal/postings"
	"github.com/minsukang/dalligo-backend/internal/requests"
	"github.com/minsukang/dalligo-backend/internal/reviews"
	"github.com/minsukang/dalligo-backend/pkg/config"
	"github.com/minsukang/dalligo-backend/pkg/db"
	"github.com/minsukang/dalligo-backend/pkg/logger"
	"github.com/minsukang/dalligo-backend/pkg/metrics"
	"github.com/minsukang/dalligo-backend/pkg/migrate"
	"github.com/minsukang/dalligo-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "expiry-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "expiry-worker",
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

	registry := prometheus.NewRegistry()
	matchingMetrics := metrics.NewMatchingMetrics(registry)
	jobMetrics := metrics.NewCronJobMetrics(registry)

	postingRepo := postings.NewRepository(dbClient.DB())
	requestRepo := requests.NewRepository(dbClient.DB())
	notificationSvc := notifications.NewService(notifications.NewRepository(dbClient.DB()), logg)
	reviewSvc := reviews.NewService(dbClient.DB(), logg)

	engine := matching.NewEngine(dbClient, postingRepo, requestRepo, reviewSvc, notificationSvc, matchingMetrics, logg)
	job := cron.NewExpiryJob(cfg.Expiry, postingRepo, engine, redisClient, jobMetrics, logg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Expiry.Interval.String(),
	})
	logg.Info(ctx, "starting expiry worker")

	job.Run(ctx)

	logg.Info(ctx, "expiry worker shutting down gracefully")
}
