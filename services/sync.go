// services/sync.go - Queue drain against the CivicReport service
package services

import (
	"context"
	"log"
	"sort"
	"time"

	"civicsync/models"
	"civicsync/remote"
)

// Backoff defaults for failed drain entries.
const (
	DefaultBackoffBase = 30 * time.Second
	DefaultBackoffCap  = 30 * time.Minute
)

// SyncService drains the durable queue when a background signal or foreground
// re-activation says connectivity is back.
type SyncService struct {
	queue        *DurableQueue
	api          remote.API
	state        *StateStore
	session      *Session
	notifier     *Notifier
	achievements *AchievementService

	backoffBase time.Duration
	backoffCap  time.Duration
	now         func() time.Time

	// single-flight: a drain already in progress absorbs new triggers
	draining chan struct{}
}

// NewSyncService wires the coordinator.
func NewSyncService(queue *DurableQueue, api remote.API, state *StateStore, session *Session, notifier *Notifier, achievements *AchievementService) *SyncService {
	return &SyncService{
		queue:        queue,
		api:          api,
		state:        state,
		session:      session,
		notifier:     notifier,
		achievements: achievements,
		backoffBase:  DefaultBackoffBase,
		backoffCap:   DefaultBackoffCap,
		now:          time.Now,
		draining:     make(chan struct{}, 1),
	}
}

// SetBackoff overrides the retry schedule for failed entries.
func (s *SyncService) SetBackoff(base, limit time.Duration) {
	s.backoffBase = base
	s.backoffCap = limit
}

// HandleSignal reacts to a PERFORM_SYNC frame or a foreground re-activation.
// Without a session it does nothing.
func (s *SyncService) HandleSignal(ctx context.Context) {
	if !s.session.Active() {
		return
	}
	if _, err := s.Drain(ctx); err != nil {
		log.Printf("❌ Sync drain failed: %v", err)
	}
}

// Drain processes queued entries one at a time, oldest first. A failed entry
// is logged, rescheduled with backoff, and left queued; the drain moves on to
// the next entry. Entries whose backoff has not elapsed are skipped. Returns
// how many entries synced.
func (s *SyncService) Drain(ctx context.Context) (int, error) {
	select {
	case s.draining <- struct{}{}:
	default:
		// another drain is running; it will pick up anything we would
		return 0, nil
	}
	defer func() { <-s.draining }()

	entries, err := s.queue.ListAll()
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	// relative submission order
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TimestampKey < entries[j].TimestampKey
	})

	synced := 0
	for i := range entries {
		entry := entries[i]
		if s.now().Before(entry.NextAttemptAt) {
			continue
		}

		// queue-only fields stay local; only the payload goes out
		report, err := s.api.CreateReport(ctx, entry.Payload, entry.IdempotencyKey)
		if err != nil {
			log.Printf("⚠️ Sync entry %d failed (attempt %d): %v", entry.TimestampKey, entry.Attempts+1, err)
			if err := s.queue.Reschedule(&entry, s.now().Add(s.backoff(entry.Attempts))); err != nil {
				log.Printf("⚠️ Failed to reschedule entry %d: %v", entry.TimestampKey, err)
			}
			continue
		}

		if err := s.queue.RemoveByKey(entry.TimestampKey); err != nil {
			log.Printf("⚠️ Failed to dequeue entry %d: %v", entry.TimestampKey, err)
		}
		s.state.ReplacePending(entry.TimestampKey, *report)
		synced++
	}

	if synced > 0 {
		log.Printf("✅ Sync drained %d report(s)", synced)
		s.notifier.Publish(models.Notification{
			Kind:  models.NotificationSyncCompleted,
			Title: "Reports synced",
		})
		if err := s.achievements.Run(ctx); err != nil {
			log.Printf("❌ Achievement check after sync failed: %v", err)
		}
	}
	return synced, nil
}

// backoff returns the delay before the next attempt after `attempts` failures
// so far: base * 2^attempts, capped.
func (s *SyncService) backoff(attempts int) time.Duration {
	d := s.backoffBase
	for i := 0; i < attempts; i++ {
		d *= 2
		if d >= s.backoffCap {
			return s.backoffCap
		}
	}
	if d > s.backoffCap {
		d = s.backoffCap
	}
	return d
}
