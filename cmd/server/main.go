package main

// @title           Polly Poll Service API
// @version         1.0
// @description     A RESTful API service for creating polls, voting and live results
// @host            localhost:8080
// @BasePath        /api/v1
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"poll-service/internal/adapters/kafka"
	"poll-service/internal/adapters/storage"
	"poll-service/internal/api/routes"
	"poll-service/internal/config"
	"poll-service/internal/database"
	"poll-service/internal/services"
	"poll-service/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Initialize logger
	slog.Info("Starting poll server")

	// Initialize Redis connection
	redisClient, err := database.NewRedisConnection(&cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Initialize PostgreSQL connection
	db, err := database.NewPostgresConnection(cfg.Database.DSN())
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize services
	redisService := services.NewRedisService(redisClient)

	// Test Redis connection and set initial migration state
	ctx := context.Background()
	if err := redisService.SetMigrationState(ctx, "1.0.0", "ready"); err != nil {
		slog.Error("Failed to set migration state", "error", err)
	}

	// Kafka carries vote events to the tally worker. The server keeps
	// accepting ballots while the broker is down; live updates resume with
	// it.
	var publisher services.VoteEventPublisher
	producer, err := kafka.InitKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		slog.Warn("Kafka unavailable, live tally updates are disabled", "error", err)
	} else {
		voteProducer := kafka.NewVoteEventProducer(producer, cfg.Kafka.Topic)
		defer voteProducer.Close()
		publisher = voteProducer
	}

	// MinIO stores option illustrations. Uploads fail while it is down.
	var images services.OptionImageStore
	minioClient, err := storage.NewMinIOClient(
		cfg.MinIO.Endpoint,
		cfg.MinIO.AccessKey,
		cfg.MinIO.SecretKey,
		cfg.MinIO.Bucket,
		cfg.MinIO.UseSSL,
	)
	if err != nil {
		slog.Warn("MinIO unavailable, option image uploads are disabled", "error", err)
	} else {
		images = minioClient
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub(redisService)
	go hub.Run()

	// Initialize router with all dependencies
	router := routes.NewRouter(
		hub,
		redisService,
		db,
		publisher,
		images,
		cfg,
	)
	router.SetupRoutes()

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop WebSocket hub
	hub.Stop()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
