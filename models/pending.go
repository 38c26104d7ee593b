// models/pending.go
package models

import (
	"strconv"
	"time"
)

// PendingReport is a durable queue entry: a submission that has not been
// confirmed by the CivicReport service yet. TimestampKey is the record key,
// a strictly increasing millisecond value issued at enqueue time.
type PendingReport struct {
	TimestampKey   int64            `gorm:"primaryKey;autoIncrement:false" json:"timestampKey"`
	Payload        ReportSubmission `gorm:"embedded;embeddedPrefix:payload_" json:"payload"`
	IdempotencyKey string           `gorm:"size:64" json:"idempotency_key"`
	Attempts       int              `gorm:"default:0" json:"attempts"`
	NextAttemptAt  time.Time        `json:"next_attempt_at"`
	CreatedAt      time.Time        `json:"created_at"`
}

func (PendingReport) TableName() string {
	return "pending_reports"
}

// PlaceholderID is the local report id projected into the state store until
// the server id is known.
func (p PendingReport) PlaceholderID() string {
	return PendingIDPrefix + strconv.FormatInt(p.TimestampKey, 10)
}

// AsPlaceholder projects the queue entry into the Report shape the UI renders
// while the entry waits for sync.
func (p PendingReport) AsPlaceholder() Report {
	return Report{
		ID:                 p.PlaceholderID(),
		Title:              p.Payload.Title,
		Description:        p.Payload.Description,
		Category:           p.Payload.Category,
		Status:             StatusNew,
		Latitude:           p.Payload.Latitude,
		Longitude:          p.Payload.Longitude,
		Address:            p.Payload.Address,
		PhotoURL:           p.Payload.PhotoURL,
		ConfirmationsCount: 1,
		IsPending:          true,
		CreatedAt:          time.UnixMilli(p.TimestampKey).UTC(),
	}
}
