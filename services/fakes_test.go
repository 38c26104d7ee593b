package services

import (
	"context"
	"sync"

	"civicsync/models"
	"civicsync/remote"
)

// fakeQueueStore is an in-memory QueueStore with a configurable capacity so
// tests can force quota failures.
type fakeQueueStore struct {
	mu       sync.Mutex
	entries  map[int64]models.PendingReport
	capacity int // -1 = unlimited
}

func newFakeQueueStore(capacity int) *fakeQueueStore {
	return &fakeQueueStore{
		entries:  make(map[int64]models.PendingReport),
		capacity: capacity,
	}
}

func (s *fakeQueueStore) Put(entry *models.PendingReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capacity >= 0 && len(s.entries) >= s.capacity {
		return ErrQuotaExceeded
	}
	s.entries[entry.TimestampKey] = *entry
	return nil
}

func (s *fakeQueueStore) List() ([]models.PendingReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PendingReport, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out, nil
}

func (s *fakeQueueStore) Delete(timestampKey int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, timestampKey)
	return nil
}

func (s *fakeQueueStore) OldestKeys(limit int) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]int64, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}

func (s *fakeQueueStore) Update(entry *models.PendingReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[entry.TimestampKey]; ok {
		existing.Attempts = entry.Attempts
		existing.NextAttemptAt = entry.NextAttemptAt
		s.entries[entry.TimestampKey] = existing
	}
	return nil
}

func (s *fakeQueueStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// memNotificationStore keeps notifications in memory.
type memNotificationStore struct {
	mu     sync.Mutex
	nextID uint
	saved  []models.Notification
}

func (s *memNotificationStore) Save(n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	n.ID = s.nextID
	s.saved = append(s.saved, *n)
	return nil
}

func (s *memNotificationStore) Recent(limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.Notification(nil), s.saved...)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memNotificationStore) MarkRead(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.saved {
		if s.saved[i].ID == id {
			s.saved[i].Read = true
		}
	}
	return nil
}

func (s *memNotificationStore) byKind(kind string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.saved {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// fakeAPI is a scriptable remote.API.
type fakeAPI struct {
	mu sync.Mutex

	createReport func(payload models.ReportSubmission, idempotencyKey string) (*models.Report, error)
	user         *models.User
	badges       []models.Badge
	settings     models.GamificationSettings
	reports      []models.Report

	updateErr      error
	updatedUsers   []*models.User
	confirmResult  *remote.ConfirmResult
	confirmErr     error
	toggleResult   *remote.SubscriptionResult
	toggleErr      error
	createdKeys    []string
	getUserCalls   int
	updateCalls    int
}

var _ remote.API = (*fakeAPI)(nil)

func (f *fakeAPI) CreateReport(_ context.Context, payload models.ReportSubmission, idempotencyKey string) (*models.Report, error) {
	f.mu.Lock()
	f.createdKeys = append(f.createdKeys, idempotencyKey)
	fn := f.createReport
	f.mu.Unlock()
	if fn == nil {
		return &models.Report{ID: "srv-" + payload.Title, Status: models.StatusNew}, nil
	}
	return fn(payload, idempotencyKey)
}

func (f *fakeAPI) GetReports(context.Context) ([]models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Report(nil), f.reports...), nil
}

func (f *fakeAPI) GetCurrentUser(context.Context) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getUserCalls++
	return f.user.Clone(), nil
}

func (f *fakeAPI) UpdateUser(_ context.Context, user *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.user = user.Clone()
	f.updatedUsers = append(f.updatedUsers, user.Clone())
	return user.Clone(), nil
}

func (f *fakeAPI) ConfirmReport(context.Context, string) (*remote.ConfirmResult, error) {
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return f.confirmResult, nil
}

func (f *fakeAPI) ToggleSubscription(context.Context, string, string) (*remote.SubscriptionResult, error) {
	if f.toggleErr != nil {
		return nil, f.toggleErr
	}
	return f.toggleResult, nil
}

func (f *fakeAPI) ListBadges(context.Context) ([]models.Badge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Badge(nil), f.badges...), nil
}

func (f *fakeAPI) GetGamificationSettings(context.Context) (*models.GamificationSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	settings := f.settings
	return &settings, nil
}
