package main

import (
	"context"
	"log"
	"log/slog"

	"poll-service/internal/config"
	"poll-service/internal/database"
	"poll-service/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting database migration...")

	// Connect to database. The connection helper runs the GORM
	// auto-migration and creates the vote uniqueness indexes.
	db, err := database.NewPostgresConnection(cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	slog.Info("Database connection established")

	// Get the underlying *sql.DB for better control
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get database instance:", err)
	}

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	// Record the migration state so operators can check it from Redis
	if redisClient, err := database.NewRedisConnection(&cfg.Redis); err != nil {
		slog.Warn("Redis unavailable, skipping migration state update", "error", err)
	} else {
		defer redisClient.Close()
		redisService := services.NewRedisService(redisClient)
		if err := redisService.SetMigrationState(context.Background(), "1.0.0", "migrated"); err != nil {
			slog.Warn("Failed to record migration state", "error", err)
		}
	}

	slog.Info("Database migration completed successfully!")
}
