// database/migrate.go - Local Store Migration Runner
package database

import (
	"log"

	"civicsync/models"
)

// RunMigrations runs all local store migrations
func RunMigrations() {
	db := GetDB()
	log.Println("🔄 Running local store migrations...")

	if err := db.AutoMigrate(
		&models.PendingReport{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}

	createIndexes()

	log.Println("✅ Migrations completed")
}

func createIndexes() {
	db := GetDB()

	// Drain order and backoff scans
	db.Exec("CREATE INDEX IF NOT EXISTS idx_pending_reports_key ON pending_reports(timestamp_key)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_pending_reports_next_attempt ON pending_reports(next_attempt_at)")

	// Notification feed
	db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at DESC)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(read)")
}
