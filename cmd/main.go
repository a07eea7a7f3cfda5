package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "promofeed/internal/adapter/http"
	"promofeed/internal/adapter/kafka"
	"promofeed/internal/adapter/postgres"
	"promofeed/internal/adapter/rediscache"
	"promofeed/internal/adapter/usecase"
	"promofeed/internal/config"
	"promofeed/internal/core/domain"
	"promofeed/internal/core/port"
	"promofeed/internal/db"
	"promofeed/internal/rules"
)

// main is the entry point of the promofeed service. It loads
// configuration and the rules file, optionally runs migrations and
// seeds the source table, builds the ingestion pipeline and serves the
// HTTP and (optionally) Kafka boundaries. On receiving a termination
// signal it gracefully shuts down the server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var logger *slog.Logger
	{
		var handler slog.Handler
		level := cfg.Log.SlogLevel()
		switch cfg.Log.SlogFormat() {
		case "json":
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		default:
			handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		}
		logger = slog.New(handler)
	}

	policy, err := rules.Load(cfg.RulesPath)
	if err != nil {
		logger.Error("failed to load rules", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.Psql.RunMigrations {
		if err = db.Migrate(cfg.Psql.Addr.String()); err != nil {
			logger.Error("migration error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied successfully")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.Psql)
	if err != nil {
		logger.Error("database connection error", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	repo := postgres.NewCampaignRepository(pool)

	if cfg.Psql.SeedSources {
		if err = db.SeedSources(ctx, repo, policy); err != nil {
			logger.Error("seed error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("sources seeded from rules file")
	}

	var cache port.FeedCache
	if cfg.Redis.Enabled {
		feedCache, err := rediscache.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			logger.Error("redis connection error", slog.Any("error", err))
			os.Exit(1)
		}
		defer feedCache.Close()
		cache = feedCache
	}

	// Build the normalizer snapshot from the store merged with the
	// rules-file hidden keys. An empty database still normalizes via
	// the rules-file sources.
	storedSources, err := repo.ListSources(ctx)
	if err != nil {
		logger.Error("source listing error", slog.Any("error", err))
		os.Exit(1)
	}
	if len(storedSources) == 0 {
		storedSources = policy.DomainSources()
	}
	sources := usecase.NewSourceHolder(domain.NewSourceIndex(storedSources, policy.HiddenKeys...))

	gate := domain.NewQualityGate(policy.QualityWeights(), policy.Categories, policy.Denylist)
	ingestSvc := usecase.NewIngestUseCase(repo, gate, policy.Classifier(), sources, policy.URLStripParams, cache, logger)
	adminSvc := usecase.NewAdminUseCase(repo, sources, policy.HiddenKeys, cache, logger)

	if cfg.Kafka.Enabled {
		go func() {
			if err := kafka.Run(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, ingestSvc, logger); err != nil && ctx.Err() == nil {
				logger.Error("kafka consumer stopped", slog.Any("error", err))
			}
		}()
	}

	handler := httpadapter.NewHandler(ingestSvc, adminSvc, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
		if serveErr := srv.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", serveErr))
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	} else {
		logger.Info("server gracefully stopped")
	}
}
