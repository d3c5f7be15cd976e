package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"poll-service/internal/models"
)

func NewPostgresConnection(dburi string) (*gorm.DB, error) {
	// Configure GORM with even more strict settings for statement handling
	db, err := gorm.Open(postgres.Open(dburi), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		PrepareStmt:                              false, // Explicitly disable prepared statements
		SkipDefaultTransaction:                   true,  // Skip default transaction for better performance
		AllowGlobalUpdate:                        false, // Safety measure
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	// Get underlying *sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %v", err)
	}

	// Additional cleanup of stale connections
	if err := cleanupStaleConnections(sqlDB); err != nil {
		log.Printf("Warning: failed to cleanup stale connections: %v", err)
	}

	// Auto migrate the schema with proper error handling
	err = db.AutoMigrate(
		&models.User{},
		&models.Poll{},
		&models.PollOption{},
		&models.Vote{},
		&models.Comment{},
	)
	if err != nil {
		// Check if the error is about existing tables
		if strings.Contains(err.Error(), "already exists") {
			// If tables exist, we can continue as the schema is already set up
			log.Println("Tables already exist, continuing with existing schema")
		} else {
			return nil, fmt.Errorf("failed to migrate database: %v", err)
		}
	}

	// Add indexes
	if err := addIndexes(db); err != nil {
		return nil, fmt.Errorf("failed to add indexes: %v", err)
	}

	return db, nil
}

// cleanupStaleConnections helps prevent statement cache issues
func cleanupStaleConnections(db *sql.DB) error {
	// Force close all connections
	db.SetMaxIdleConns(0)
	db.SetMaxOpenConns(0)
	time.Sleep(100 * time.Millisecond)

	// Restore normal limits
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(50)

	return nil
}

func addIndexes(db *gorm.DB) error {
	// Add indexes for better query performance
	indexes := []struct {
		table   string
		columns []string
	}{
		{"users", []string{"email"}},
		{"polls", []string{"creator_id", "category"}},
		{"poll_options", []string{"poll_id"}},
		{"votes", []string{"poll_id"}},
		{"comments", []string{"poll_id", "parent_id"}},
	}

	for _, idx := range indexes {
		for _, column := range idx.columns {
			indexName := fmt.Sprintf("idx_%s_%s", idx.table, column)
			if err := db.Exec(fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
				indexName, idx.table, column)).Error; err != nil {
				return err
			}
		}
	}

	// Unique indexes backing the duplicate-vote guard. The partial index
	// keeps one ballot per voter on single-choice polls; the second one
	// stops the same option being voted twice on any poll.
	uniques := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_one_ballot
			ON votes (poll_id, voter_key)
			WHERE NOT multi AND deleted_at IS NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_ballot_option
			ON votes (poll_id, voter_key, option_id)
			WHERE deleted_at IS NULL`,
	}
	for _, stmt := range uniques {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	return nil
}
