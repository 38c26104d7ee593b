// services/merge.go - Pending/server reconciliation
package services

import (
	"sort"

	"civicsync/models"
)

// MergeReports builds the single authoritative report list from locally
// pending entries and server-confirmed reports. Both sides go into an
// id-keyed map, server side last so a confirmed report that already replaced
// a placeholder wins on id collision; placeholders whose sync has not
// resolved survive untouched. The result is ordered newest first.
func MergeReports(pending []models.PendingReport, server []models.Report) []models.Report {
	byID := make(map[string]models.Report, len(pending)+len(server))
	order := make([]string, 0, len(pending)+len(server))

	for _, entry := range pending {
		placeholder := entry.AsPlaceholder()
		if _, seen := byID[placeholder.ID]; !seen {
			order = append(order, placeholder.ID)
		}
		byID[placeholder.ID] = placeholder
	}
	for _, report := range server {
		if _, seen := byID[report.ID]; !seen {
			order = append(order, report.ID)
		}
		byID[report.ID] = report
	}

	merged := make([]models.Report, 0, len(byID))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged
}
