package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/du-marcomm/scholarship-sync/internal/config"
	"github.com/du-marcomm/scholarship-sync/internal/database"
	"github.com/du-marcomm/scholarship-sync/internal/handler"
	"github.com/du-marcomm/scholarship-sync/internal/lock"
	"github.com/du-marcomm/scholarship-sync/internal/logger"
	"github.com/du-marcomm/scholarship-sync/internal/repository"
	"github.com/du-marcomm/scholarship-sync/internal/router"
	"github.com/du-marcomm/scholarship-sync/internal/service"
	"github.com/du-marcomm/scholarship-sync/internal/validator"
	"github.com/du-marcomm/scholarship-sync/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Scholarship Sync")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	scholarshipRepo := repository.NewScholarshipRepository(pool)
	termRepo := repository.NewTermRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	editLocks := lock.NewRedisEditLock(rdb)

	authService := service.NewAuthService(cfg)
	settingService := service.NewSettingService(settingRepo, log)
	termService := service.NewTermService(termRepo, log)
	feedService := service.NewFeedService(settingService, log)
	importService := service.NewImportService(scholarshipRepo, termService, editLocks, feedService, rdb, log)
	archiveService := service.NewArchiveService(scholarshipRepo, editLocks, cfg.ArchiveMinBatch, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Setting: handler.NewSettingHandler(settingService),
		Import:  handler.NewImportHandler(importService, feedService, scholarshipRepo),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	importWorker := worker.NewImportWorker(importService, rdb, log)
	archiveWorker := worker.NewArchiveWorker(archiveService, rdb, log)

	go importWorker.Start(workerCtx)
	go archiveWorker.Start(workerCtx)

	// ─── Scheduled Import ─────────────────────────────────────────────
	// When IMPORT_INTERVAL_MINUTES is set, run the fetch-and-enqueue
	// cycle on a timer. A failed cycle is logged and the next tick
	// retries from scratch.
	if cfg.ImportInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.ImportInterval)
			defer ticker.Stop()
			for {
				select {
				case <-workerCtx.Done():
					return
				case <-ticker.C:
					if _, _, err := importService.QueueFromFeed(workerCtx); err != nil {
						log.Error().Err(err).Msg("Scheduled import cycle failed")
					}
				}
			}
		}()
		log.Info().Dur("interval", cfg.ImportInterval).Msg("Scheduled import enabled")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
