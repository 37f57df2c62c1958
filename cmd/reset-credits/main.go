// Command reset-credits renews the credits of paid accounts whose last reset
// falls in an earlier calendar month. Run it from a scheduler; re-runs are
// harmless.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/capsule-closet/capsule-be/internal/credits"
	"github.com/capsule-closet/capsule-be/internal/logger"
	"github.com/capsule-closet/capsule-be/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	log := logger.NewForEnvironment(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	defer func() { _ = log.Sync() }()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := postgres.NewStore(ctx, dbURL)
	if err != nil {
		log.Fatal("init database", zap.Error(err))
	}
	defer store.Close()

	n, err := credits.NewResetJob(store, log, nil).Run(ctx, time.Now())
	if err != nil {
		log.Fatal("monthly reset failed", zap.Error(err))
	}
	log.Info("monthly reset finished", zap.Int("accounts", n))
}
