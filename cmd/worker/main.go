package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"poll-service/internal/adapters/kafka"
	"poll-service/internal/config"
	"poll-service/internal/database"
	"poll-service/internal/repositories/postgres"
	"poll-service/internal/services"
)

// The tally worker drains the vote event topic and recomputes the affected
// poll's results, refreshing the cache and notifying live subscribers
// through Redis Pub/Sub. Events for one poll share a partition key, so
// recomputes for a poll arrive in order.
func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting tally worker")

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

	redisService := services.NewRedisService(redisClient)
	pollRepo := postgres.NewPollRepository(db)
	tallyService := services.NewTallyService(pollRepo, redisService, cfg.Vote.TallyCacheTTL)

	reader := kafka.NewVoteEventReader(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic)
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("Consuming vote events", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.GroupID)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				break
			}
			slog.Error("Failed to read vote event", "error", err)
			time.Sleep(time.Second)
			continue
		}

		event, err := kafka.DecodeVoteEvent(msg)
		if err != nil {
			slog.Warn("Skipping malformed vote event", "offset", msg.Offset, "error", err)
			continue
		}

		if _, err := tallyService.Recompute(ctx, event.PollID); err != nil {
			slog.Error("Tally recompute failed", "pollID", event.PollID, "error", err)
		}
	}

	slog.Info("Tally worker stopped")
}
