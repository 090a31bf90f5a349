package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/lms-backend/internal/config"
	"github.com/stemsi/lms-backend/internal/database"
	"github.com/stemsi/lms-backend/internal/handler"
	"github.com/stemsi/lms-backend/internal/logger"
	"github.com/stemsi/lms-backend/internal/repository"
	"github.com/stemsi/lms-backend/internal/router"
	"github.com/stemsi/lms-backend/internal/service"
	"github.com/stemsi/lms-backend/internal/validator"
	"github.com/stemsi/lms-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Dur("join_window", cfg.JoinWindow).
		Msg("Starting LMS Backend")

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
	userRepo := repository.NewUserRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	participantRepo := repository.NewParticipantRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	paperCache := repository.NewRedisPaperCache(rdb, cfg.PaperCacheTTL)
	announcementStore := repository.NewRedisAnnouncementStore(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	notifier := service.NewQueueNotifier(rdb)
	gate := service.NewExamGate(cfg.JoinWindow)

	authService := service.NewAuthService(cfg, userRepo, rdb)
	userService := service.NewUserService(userRepo, authService, log)
	examService := service.NewExamService(examRepo, questionRepo, participantRepo, userRepo, paperCache, notifier, nil, log)
	participationService := service.NewParticipationService(examRepo, questionRepo, participantRepo, paperCache, gate, nil, log)
	notificationService := service.NewNotificationService(notificationRepo)
	announcementService := service.NewAnnouncementService(announcementStore, notifier, nil, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		User:          handler.NewUserHandler(userService),
		Exam:          handler.NewExamHandler(examService),
		StudentPortal: handler.NewStudentPortalHandler(participationService),
		Notification:  handler.NewNotificationHandler(notificationService),
		Announcement:  handler.NewAnnouncementHandler(announcementService),
		WS:            handler.NewWSHandler(rdb, log, cfg.AllowedOrigins),
		System:        handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	notificationWorker := worker.NewNotificationWorker(notificationRepo, rdb, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		notificationWorker.Start(workerCtx)
	}()

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load every unlocked exam paper into Redis BEFORE accepting traffic.
	if _, err := examService.PrewarmCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r, loginLimiter := router.SetupRouter(authService, handlers, cfg, log)
	defer loginLimiter.Close()

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	// 2. Stop the notification worker; it flushes its pending batch first.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
