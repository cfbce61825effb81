package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/minsukang/dalligo-backend/api/routes"
	"github.com/minsukang/dalligo-backend/internal/boards"
	"github.com/minsukang/dalligo-backend/internal/chat"
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
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	postingRepo := postings.NewRepository(dbClient.DB())
	requestRepo := requests.NewRepository(dbClient.DB())

	notificationSvc := notifications.NewService(notifications.NewRepository(dbClient.DB()), logg)
	reviewSvc := reviews.NewService(dbClient.DB(), logg)

	engine := matching.NewEngine(dbClient, postingRepo, requestRepo, reviewSvc, notificationSvc, matchingMetrics, logg)
	postingSvc := postings.NewService(postingRepo, requestRepo, redisClient, cfg.Matching.ViewCountDedupeTTL, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Postings:      postingSvc,
			Engine:        engine,
			Notifications: notificationSvc,
			Reviews:       reviewSvc,
			Boards:        boards.NewService(dbClient.DB()),
			Chat:          chat.NewService(dbClient.DB()),
			Metrics:       registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
