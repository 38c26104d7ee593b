// models/report.go
package models

import "time"

// Report statuses as issued by the CivicReport service.
const (
	StatusNew        = "new"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusRejected   = "rejected"
)

// PendingIDPrefix marks locally projected placeholder reports. Server ids are
// opaque and never start with this prefix, so the two namespaces cannot collide.
const PendingIDPrefix = "pending-"

// ReportSubmission is the payload a citizen submits for a new issue.
type ReportSubmission struct {
	Title       string  `json:"title" validate:"required,max=120"`
	Description string  `json:"description" validate:"required,max=2000"`
	Category    string  `json:"category" validate:"required"`
	Latitude    float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Address     string  `json:"address,omitempty"`
	PhotoURL    string  `json:"photo_url,omitempty" validate:"omitempty,url"`
}

// Report is a municipal-issue report as held in the state store. Confirmed
// reports carry a server id; reports still waiting for sync carry a
// "pending-<key>" placeholder id and IsPending=true.
type Report struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Category           string    `json:"category"`
	Status             string    `json:"status"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	Address            string    `json:"address,omitempty"`
	PhotoURL           string    `json:"photo_url,omitempty"`
	ConfirmationsCount int       `json:"confirmations_count"`
	UserID             string    `json:"user_id,omitempty"`
	IsPending          bool      `json:"isPending,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}
