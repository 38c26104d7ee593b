// models/notification.go
package models

import "time"

// Notification kinds surfaced to the UI.
const (
	NotificationBadgeAwarded    = "badge_awarded"
	NotificationReportConfirmed = "report_confirmed"
	NotificationSyncCompleted   = "sync_completed"
)

// Notification is a user-visible event. Persisted to the local outbox so the
// UI still sees awards after an agent restart, and pushed live over /ws.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Kind      string    `gorm:"not null;index;size:40" json:"kind"`
	Title     string    `gorm:"not null;size:200" json:"title"`
	Body      string    `gorm:"type:text" json:"body,omitempty"`
	BadgeID   string    `gorm:"size:80;index" json:"badge_id,omitempty"`
	ReportID  string    `gorm:"size:80;index" json:"report_id,omitempty"`
	Read      bool      `gorm:"default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
