package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/quizforge/internal/api"
	"github.com/vytor/quizforge/internal/autosave"
	"github.com/vytor/quizforge/internal/cache"
	"github.com/vytor/quizforge/internal/config"
	"github.com/vytor/quizforge/internal/db"
	"github.com/vytor/quizforge/internal/jobs"
	"github.com/vytor/quizforge/internal/logger"
	"github.com/vytor/quizforge/internal/repository/sqlite"
	"github.com/vytor/quizforge/internal/services"
	"github.com/vytor/quizforge/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("QuizForge Server Starting")
	log.Info("===========================================")
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("redis_enabled=%t", cfg.RedisURL != "")
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("import_worker_count=%d", cfg.ImportWorkerCount)
	log.Debug("import_queue_size=%d", cfg.ImportQueueSize)
	log.Debug("leaderboard_worker_count=%d", cfg.LeaderboardWorkers)
	log.Debug("leaderboard_queue_size=%d", cfg.LeaderboardQueueSize)
	log.Debug("max_upload_bytes=%d", cfg.MaxUploadBytes)
	log.Debug("autosave_ttl=%s", cfg.AutoSaveTTL)

	ctx, cancel := context.WithCancel(logger.NewContext(context.Background(), log))

	// Open database
	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	// Redis when configured, otherwise an in-process store
	var store cache.Store
	if cfg.RedisURL != "" {
		client, err := cache.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis: %v", err)
			os.Exit(1)
		}
		defer client.Close()
		store = cache.NewRedis(client)
		log.Info("using redis cache")
	} else {
		store = cache.NewMemory()
		log.Info("REDIS_URL not set, using in-memory cache")
	}

	// Initialize repositories
	quizRepo := sqlite.NewQuizRepository(database.DB)
	attemptRepo := sqlite.NewAttemptRepository(database.DB)
	progressRepo := sqlite.NewProgressRepository(database.DB)
	leaderboardRepo := sqlite.NewLeaderboardRepository(database.DB)

	// Initialize services and worker pools
	importService := services.NewImportService(quizRepo, store, cfg.MaxUploadBytes, cfg.ImportStatusTTL)
	leaderboardService := services.NewLeaderboardService(attemptRepo, leaderboardRepo)

	importPool := worker.NewPool("import", cfg.ImportWorkerCount, cfg.ImportQueueSize)
	leaderboardPool := worker.NewPool("leaderboard", cfg.LeaderboardWorkers, cfg.LeaderboardQueueSize)
	jobQueue := jobs.NewWorkerQueue(importPool, leaderboardPool, importService, leaderboardService)

	quizService := services.NewQuizService(quizRepo, importService, jobQueue, store, cfg.CacheTTL, cfg.MaxUploadBytes)
	autoSave := autosave.NewService(store, attemptRepo, cfg.AutoSaveTTL)
	attemptService := services.NewAttemptService(quizRepo, attemptRepo, progressRepo, jobQueue, autoSave)

	srv := &api.Server{
		QuizService:        quizService,
		AttemptService:     attemptService,
		LeaderboardService: leaderboardService,
		AutoSave:           autoSave,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		ReadyChecks: map[string]api.ReadyCheck{
			"database": database.Ready,
			"cache":    store.Ping,
		},
	}

	importPool.Start(ctx)
	leaderboardPool.Start(ctx)

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Drain queued jobs before cancelling their context
	log.Debug("stopping import pool")
	importPool.Stop()
	log.Debug("stopping leaderboard pool")
	leaderboardPool.Stop()
	cancel()

	log.Info("===========================================")
	log.Info("QuizForge Server Stopped")
	log.Info("===========================================")
}
