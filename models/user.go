// models/user.go
package models

import "time"

// User is the current citizen as reported by the CivicReport service.
// Achievements only ever grows; Points moves by rule amounts plus signed admin
// adjustments; ReportsConfirmed counts confirmations the user has given.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`

	Points           int      `json:"points"`
	ReportsConfirmed int      `json:"reportsConfirmed"`
	Achievements     []string `json:"achievements"`

	SubscribedReportIDs []string `json:"subscribedReportIds"`
	SubscribedUserIDs   []string `json:"subscribedUserIds"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasAchievement reports whether the badge id has already been granted.
func (u *User) HasAchievement(badgeID string) bool {
	for _, id := range u.Achievements {
		if id == badgeID {
			return true
		}
	}
	return false
}

// IsSubscribedToReport reports whether the user follows the given report.
func (u *User) IsSubscribedToReport(reportID string) bool {
	for _, id := range u.SubscribedReportIDs {
		if id == reportID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy, used to capture pre-mutation snapshots for
// optimistic rollback.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Achievements = append([]string(nil), u.Achievements...)
	c.SubscribedReportIDs = append([]string(nil), u.SubscribedReportIDs...)
	c.SubscribedUserIDs = append([]string(nil), u.SubscribedUserIDs...)
	return &c
}
