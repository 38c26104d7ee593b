// database/db.go - Local Store Connection (SQLite)
package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// InitDB opens the on-device SQLite store. The same file backs the pending
// submission queue and the notification outbox, so queued reports survive
// agent restarts.
func InitDB() {
	path := StorePath()

	var err error
	db, err = gorm.Open(sqlite.Open(path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})

	if err != nil {
		log.Fatalf("Failed to open local store %s: %v", path, err)
	}

	// Single local file, keep the pool tiny
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Printf("✅ Local store opened at %s", path)

	RunMigrations()
}

// StorePath resolves the SQLite file location from the environment.
func StorePath() string {
	if path := os.Getenv("CIVICSYNC_DB"); path != "" {
		return path
	}
	dir := getEnvOrDefault("CIVICSYNC_DATA_DIR", ".")
	return filepath.Join(dir, "civicsync.db")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	if db == nil {
		log.Fatal("Database not initialized. Call InitDB() first.")
	}
	return db
}

// SetDB overrides the store handle. Used by queuectl, which opens the store
// file itself, and by tests.
func SetDB(handle *gorm.DB) {
	db = handle
}

// CloseDB closes the database connection
func CloseDB() error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %v", err)
	}

	log.Println("Local store closed")
	return nil
}
