package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"leaddesk/config"
	"leaddesk/middleware"
	"leaddesk/routes"
	"leaddesk/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.NewLogger(cfg.LogLevel, cfg.Environment)
	cfg.LogConfig(logger)

	flushSentry, err := utils.InitSentry(cfg.SentryDSN, cfg.Environment)
	if err != nil {
		logger.WithError(err).Warn("Sentry disabled")
	}
	defer flushSentry()

	// Initialize database connection
	db, err := config.ConnectDB(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "leaddesk",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		BodyLimit:    6 << 20,
	})
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		MaxAge:           3600,
	}))

	storage := middleware.NewRateLimitStorage(cfg.Redis)
	if storage != nil {
		defer storage.Close()
	}

	routes.SetupRoutes(app, routes.Deps{
		DB:               db,
		Logger:           logger,
		JWTSecret:        cfg.JWTSecret,
		RateLimitMax:     cfg.RateLimitMax,
		RateLimitStorage: storage,
		Metrics:          middleware.NewMetrics(prometheus.DefaultRegisterer),
		Gatherer:         prometheus.DefaultGatherer,
		AccessLog:        cfg.Environment != "production",
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.WithError(err).Error("Server shutdown failed")
		}
	}()

	logger.Infof("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
