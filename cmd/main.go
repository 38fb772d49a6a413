package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"andon/internal/config"
	"andon/internal/handlers"
	"andon/internal/middleware"
	"andon/internal/repository"
	"andon/internal/service"
	"andon/pkg/database"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	// Загрузка .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Загрузка конфигурации
	cfg := config.Load()

	// Логгер
	var zapLogger *zap.Logger
	var err error
	if cfg.App.Debug {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	logger.Info("=== Andon Anomaly Tracker Starting ===")

	// Подключение к PostgreSQL
	db, err := database.Connect(database.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		DBName:   cfg.DB.DBName,
		SSLMode:  cfg.DB.SSLMode,
	})
	if err != nil {
		logger.Fatalw("Failed to connect to database", "error", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()
	logger.Info("Database connected successfully")

	// Автомиграция моделей
	if err := database.Migrate(db); err != nil {
		logger.Fatalw("Failed to migrate database", "error", err)
	}

	// Инициализация репозитория и сервисов
	anomalyRepo := repository.NewAnomalyRepository(db)
	anomalyService := service.NewAnomalyService(anomalyRepo, logger, cfg.Export.OutputDir)
	importService := service.NewImportService(anomalyRepo, logger)

	// Инициализация обработчиков
	anomalyHandler := handlers.NewAnomalyHandler(anomalyService, logger)
	uploadHandler := handlers.NewUploadHandler(importService, cfg.Upload.MaxSizeMB*1024*1024, logger)
	dashboardHandler := handlers.NewDashboardHandler(anomalyService, logger)

	// Инициализация Gin
	if cfg.App.Debug {
		gin.SetMode(gin.DebugMode)
		logger.Info("Running in DEBUG mode")
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// CORS для фронтенда
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", cfg.App.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Rate limiting (только для продакшена)
	if !cfg.App.Debug {
		limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
		r.Use(middleware.RateLimitMiddleware(limiter, logger))
		logger.Infof("Rate limiting enabled: %d req/sec, burst: %d",
			cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	// Группа API v1
	api := r.Group("/api/v1")

	api.GET("/anomalies", anomalyHandler.List)
	api.POST("/anomalies", anomalyHandler.Create)
	api.GET("/anomalies/export", anomalyHandler.Export)
	api.GET("/anomalies/:id", anomalyHandler.Get)
	api.PUT("/anomalies/:id", anomalyHandler.Update)
	api.DELETE("/anomalies/:id", anomalyHandler.Delete)

	api.POST("/upload", uploadHandler.Upload)

	api.GET("/dashboard/stats", dashboardHandler.GetStats)
	api.GET("/maintenance-windows", anomalyHandler.ListScheduled)

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on http://localhost:%s", cfg.App.Port)
		logger.Infof("API available at http://localhost:%s/api/v1", cfg.App.Port)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("Server failed to start", "error", err)
		}
	}()

	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalw("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited properly")
}
