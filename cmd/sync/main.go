package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/du-marcomm/scholarship-sync/internal/config"
	"github.com/du-marcomm/scholarship-sync/internal/database"
	"github.com/du-marcomm/scholarship-sync/internal/lock"
	"github.com/du-marcomm/scholarship-sync/internal/logger"
	"github.com/du-marcomm/scholarship-sync/internal/repository"
	"github.com/du-marcomm/scholarship-sync/internal/service"
)

// One-shot import trigger, intended for cron. Fetches the feed and fills
// the Redis queues; the server's workers do the actual writing, so this
// exits as soon as everything is enqueued.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	scholarshipRepo := repository.NewScholarshipRepository(pool)
	termRepo := repository.NewTermRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)

	settingService := service.NewSettingService(settingRepo, log)
	termService := service.NewTermService(termRepo, log)
	feedService := service.NewFeedService(settingService, log)
	importService := service.NewImportService(
		scholarshipRepo, termService, lock.NewRedisEditLock(rdb), feedService, rdb, log,
	)

	fmt.Println("=== Scholarship Import ===")

	queued, total, err := importService.QueueFromFeed(ctx)
	if err != nil {
		fmt.Printf("Import failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Queued %d/%d scholarships for import.\n", queued, total)
}
