// services/state.go - In-memory authoritative cache
package services

import (
	"sort"
	"sync"

	"civicsync/models"
)

// StateStore is the single in-memory source of truth the local API reads
// from. Writers are the reconciliation step, the achievement commit, and the
// optimistic-update commit/rollback; everything else is read-only.
type StateStore struct {
	mu       sync.RWMutex
	reports  []models.Report
	user     *models.User
	badges   []models.Badge
	settings models.GamificationSettings
}

// NewStateStore creates an empty store.
func NewStateStore() *StateStore {
	return &StateStore{}
}

// Reports returns a copy of the merged report list, newest first.
func (s *StateStore) Reports() []models.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Report(nil), s.reports...)
}

// Report looks up one report by id.
func (s *StateStore) Report(id string) (models.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reports {
		if r.ID == id {
			return r, true
		}
	}
	return models.Report{}, false
}

// SetReports replaces the report list with a freshly merged one.
func (s *StateStore) SetReports(reports []models.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append([]models.Report(nil), reports...)
	sortReports(s.reports)
}

// AddReport inserts or replaces one report and keeps the list ordered.
func (s *StateStore) AddReport(report models.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertLocked(report)
}

// ReplacePending swaps the placeholder projected for timestampKey with the
// server-confirmed report. This is the only way a report loses its pending
// flag. When the placeholder is already gone the confirmed report is still
// inserted.
func (s *StateStore) ReplacePending(timestampKey int64, confirmed models.Report) {
	placeholder := models.PendingReport{TimestampKey: timestampKey}.PlaceholderID()

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reports {
		if s.reports[i].ID == placeholder {
			s.reports[i] = confirmed
			sortReports(s.reports)
			return
		}
	}
	s.upsertLocked(confirmed)
}

func (s *StateStore) upsertLocked(report models.Report) {
	for i := range s.reports {
		if s.reports[i].ID == report.ID {
			s.reports[i] = report
			sortReports(s.reports)
			return
		}
	}
	s.reports = append(s.reports, report)
	sortReports(s.reports)
}

// User returns a deep copy of the cached user, nil when no session data has
// been loaded yet.
func (s *StateStore) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// SetUser replaces the cached user snapshot.
func (s *StateStore) SetUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user.Clone()
}

// Badges returns the badge definitions in evaluation order.
func (s *StateStore) Badges() []models.Badge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Badge(nil), s.badges...)
}

// SetBadges replaces the badge definitions.
func (s *StateStore) SetBadges(badges []models.Badge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.badges = append([]models.Badge(nil), badges...)
}

// Settings returns the gamification settings.
func (s *StateStore) Settings() models.GamificationSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetSettings replaces the gamification settings.
func (s *StateStore) SetSettings(settings models.GamificationSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

func sortReports(reports []models.Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
}
