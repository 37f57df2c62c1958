package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/capsule-closet/capsule-be/internal/cache"
	"github.com/capsule-closet/capsule-be/internal/config"
	"github.com/capsule-closet/capsule-be/internal/credits"
	"github.com/capsule-closet/capsule-be/internal/entitlements"
	"github.com/capsule-closet/capsule-be/internal/http/handlers"
	"github.com/capsule-closet/capsule-be/internal/logger"
	"github.com/capsule-closet/capsule-be/internal/metrics"
	"github.com/capsule-closet/capsule-be/internal/server"
	"github.com/capsule-closet/capsule-be/internal/storage"
	"github.com/capsule-closet/capsule-be/internal/storage/blob"
	"github.com/capsule-closet/capsule-be/internal/storage/mongodb"
	"github.com/capsule-closet/capsule-be/internal/storage/postgres"
	"github.com/capsule-closet/capsule-be/internal/tryon"
	"github.com/capsule-closet/capsule-be/internal/wardrobe"
)

func main() {
	envLoaded := godotenv.Load() == nil

	cfg, cfgErr := config.Load()
	log := logger.NewForEnvironment(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)
	if cfgErr != nil {
		log.Fatal("load config", zap.Error(cfgErr))
	}
	if !envLoaded {
		log.Info("no .env file found; relying on existing environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := postgres.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("init database", zap.Error(err))
	}
	defer pg.Close()

	mongoStore, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatal("init inventory store", zap.Error(err))
	}
	defer func() { _ = mongoStore.Close(context.Background()) }()

	var inventory storage.InventoryStore = mongoStore
	health := map[string]handlers.Pinger{"postgres": pg, "mongodb": mongoStore}
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn("redis unavailable, serving inventory uncached", zap.Error(err))
		} else {
			defer rdb.Close()
			inventory = cache.NewInventoryStore(mongoStore, rdb, cfg.InventoryTTL, log)
		}
	}

	m := metrics.New()
	if cfg.RevenueCatAPIKey == "" {
		log.Warn("REVENUECAT_API_KEY is not set; entitlement sync will fail")
	}
	source := entitlements.NewClient(cfg.RevenueCatBaseURL, cfg.RevenueCatAPIKey, nil)

	deps := server.Deps{
		Logger:   log,
		Metrics:  m,
		Users:    pg,
		Sessions: credits.NewSessions(pg, cfg.StartingCredits),
		Manager:  credits.NewManager(pg, log, m),
		Sync:     credits.NewSynchronizer(pg, source, log, m),
		Wardrobe: wardrobe.NewService(inventory, mongoStore.Outfits(), log, m, cfg.FreeTierItemLimit),
		Health:   health,
	}

	if cfg.TryOnEnabled() {
		model, err := tryon.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatal("init try-on model", zap.Error(err))
		}
		defer model.Close()
		blobs, err := blob.NewS3Store(ctx, cfg.AWSRegion, cfg.S3Bucket)
		if err != nil {
			log.Fatal("init blob store", zap.Error(err))
		}
		deps.Renderer = tryon.NewService(model, blobs, nil, cfg.GarmentImageHosts(), log)
	} else {
		log.Info("try-on disabled: GEMINI_API_KEY or S3_BUCKET missing")
	}

	if cfg.ResetInterval > 0 {
		go credits.NewResetJob(pg, log, m).RunEvery(ctx, cfg.ResetInterval)
	}

	srv := server.New(cfg, deps)
	go func() {
		log.Info("capsule backend listening", zap.String("addr", cfg.HTTPAddress()))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error("graceful shutdown error", zap.Error(err))
	}
}
