package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/soridam/contest-system/config"
	"github.com/soridam/contest-system/db"
	"github.com/soridam/contest-system/handlers"
	"github.com/soridam/contest-system/live"
	"github.com/soridam/contest-system/repositories"
	api "github.com/soridam/contest-system/routes"
	"github.com/soridam/contest-system/services"
	"github.com/soridam/contest-system/storage"
)

const reconcileInterval = 30 * time.Second // Как часто планировщик закрывает просроченные конкурсы

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	// Архив аудита (Cloudflare R2) — опционален
	var archive storage.ArchiveUploader
	if cfg.ArchiveEnabled() {
		archive, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize audit archive uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("audit archive uploader initialized")
	} else {
		logger.Info("audit archive is not configured, snapshots disabled")
	}

	// Инициализация репозиториев
	contestRepo := repositories.NewPostgresContestRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	gradeRepo := repositories.NewPostgresGradeRepository(dbConn)
	logger.Info("repositories initialized")

	// Инициализация сервисов
	contestService := services.NewContestService(contestRepo, participantRepo, teamRepo, gradeRepo, archive, logger)
	participantService := services.NewParticipantService(participantRepo, teamRepo, contestService, logger)
	teamService := services.NewTeamService(teamRepo, participantRepo, contestService)
	gradeService := services.NewGradeService(gradeRepo, participantRepo, teamRepo, contestService)
	logger.Info("services initialized")

	// Live-хаб и мост к событиям изменения коллекций
	hub := live.NewHub(logger)
	go hub.Run()

	changeListener, err := repositories.NewChangeListener(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to start change listener", slog.Any("error", err))
		os.Exit(1)
	}
	defer changeListener.Close()
	go hub.RunChangeBridge(changeListener.Events())
	logger.Info("live hub and change bridge started")

	// Планировщик закрытия просроченных конкурсов
	go func() {
		ticker := time.NewTicker(reconcileInterval)
		defer ticker.Stop()
		logger.Info("deadline reconciler started", slog.Duration("interval", reconcileInterval))

		// Первый прогон сразу при старте, дальше по тикеру
		if err := contestService.ReconcileDeadlines(context.Background()); err != nil {
			logger.Error("reconciler: initial run failed", slog.Any("error", err))
		}
		for range ticker.C {
			if err := contestService.ReconcileDeadlines(context.Background()); err != nil {
				logger.Error("reconciler: periodic run failed", slog.Any("error", err))
			}
		}
	}()

	// Инициализация обработчиков HTTP
	contestHandler := handlers.NewContestHandler(contestService)
	participantHandler := handlers.NewParticipantHandler(participantService)
	teamHandler := handlers.NewTeamHandler(teamService)
	gradeHandler := handlers.NewGradeHandler(gradeService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, logger)

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		logger,
		[]byte(cfg.JWTSecretKey),
		contestHandler,
		participantHandler,
		teamHandler,
		gradeHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
	}
	logger.Info("application exited")
}
