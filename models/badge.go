// models/badge.go
package models

// Badge criteria types.
const (
	CriteriaReportCount       = "report_count"
	CriteriaConfirmationCount = "confirmation_count"
	CriteriaPointThreshold    = "point_threshold"
)

// BadgeCriteria describes when a badge is earned. CategoryFilter narrows
// report_count criteria to reports of one category.
type BadgeCriteria struct {
	Type           string `json:"type"`
	Value          int    `json:"value"`
	CategoryFilter string `json:"category_filter,omitempty"`
}

// Badge is a gamification badge definition served by the CivicReport service.
// Badges are evaluated in the order the service lists them.
type Badge struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Icon        string        `json:"icon,omitempty"`
	IsActive    bool          `json:"is_active"`
	Criteria    BadgeCriteria `json:"criteria"`
}

// PointsRules maps rule names ("earn_badge", "submit_report", ...) to point
// amounts. Admin adjustments may be negative.
type PointsRules map[string]int

// GamificationSettings is the remote gamification configuration.
type GamificationSettings struct {
	PointsRules PointsRules `json:"pointsRules"`
}

// EarnBadgePoints returns the points granted per badge award, 0 when the rule
// is not configured.
func (s GamificationSettings) EarnBadgePoints() int {
	return s.PointsRules["earn_badge"]
}
