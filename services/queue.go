// services/queue.go - Durable submission queue
package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"civicsync/models"
)

// ErrQuotaExceeded is returned by a QueueStore when the device refuses the
// write for lack of space.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// ErrStorageExhausted means the queue write failed even after evicting the
// oldest entries. The submission is lost and the caller must surface that.
var ErrStorageExhausted = errors.New("local storage exhausted")

// evictBatchSize is how many oldest entries an enqueue may sacrifice to make
// room for a new one.
const evictBatchSize = 5

// QueueStore is the persistence behind the durable queue. Injected so the
// sync path and tests never reach for a hidden global handle.
type QueueStore interface {
	Put(entry *models.PendingReport) error
	List() ([]models.PendingReport, error)
	Delete(timestampKey int64) error
	OldestKeys(limit int) ([]int64, error)
	Update(entry *models.PendingReport) error
}

// DurableQueue persists not-yet-confirmed submissions across agent restarts.
type DurableQueue struct {
	store QueueStore

	mu      sync.Mutex
	lastKey int64
	now     func() time.Time
}

// NewDurableQueue creates a queue over the given store.
func NewDurableQueue(store QueueStore) *DurableQueue {
	return &DurableQueue{store: store, now: time.Now}
}

// nextKey issues a strictly increasing millisecond key. Rapid submissions in
// the same millisecond get lastKey+1, so keys never collide.
func (q *DurableQueue) nextKey() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	key := q.now().UnixMilli()
	if key <= q.lastKey {
		key = q.lastKey + 1
	}
	q.lastKey = key
	return key
}

// Enqueue persists a submission. On a quota failure it evicts up to
// evictBatchSize oldest entries and retries once; if nothing was evictable or
// the retry still fails, the caller gets ErrStorageExhausted.
func (q *DurableQueue) Enqueue(payload models.ReportSubmission) (*models.PendingReport, error) {
	entry := &models.PendingReport{
		TimestampKey:   q.nextKey(),
		Payload:        payload,
		IdempotencyKey: uuid.NewString(),
		NextAttemptAt:  q.now().UTC(),
		CreatedAt:      q.now().UTC(),
	}

	err := q.store.Put(entry)
	if err == nil {
		return entry, nil
	}
	if !isQuotaErr(err) {
		return nil, fmt.Errorf("enqueue report: %w", err)
	}

	evicted, evictErr := q.evictOldest(evictBatchSize)
	if evictErr != nil {
		return nil, fmt.Errorf("%w: eviction failed: %v", ErrStorageExhausted, evictErr)
	}
	if evicted == 0 {
		return nil, ErrStorageExhausted
	}
	log.Printf("⚠️ Queue full, evicted %d oldest entries", evicted)

	if err := q.store.Put(entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageExhausted, err)
	}
	return entry, nil
}

// ListAll returns every queued entry in unspecified order; callers sort.
func (q *DurableQueue) ListAll() ([]models.PendingReport, error) {
	return q.store.List()
}

// RemoveByKey deletes one entry. Removing an absent key is a no-op.
func (q *DurableQueue) RemoveByKey(timestampKey int64) error {
	return q.store.Delete(timestampKey)
}

// Reschedule records a failed drain attempt and pushes the entry's next
// eligible time forward.
func (q *DurableQueue) Reschedule(entry *models.PendingReport, nextAttemptAt time.Time) error {
	entry.Attempts++
	entry.NextAttemptAt = nextAttemptAt.UTC()
	return q.store.Update(entry)
}

func (q *DurableQueue) evictOldest(limit int) (int, error) {
	keys, err := q.store.OldestKeys(limit)
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		if err := q.store.Delete(key); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

func isQuotaErr(err error) bool {
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database or disk is full") || strings.Contains(msg, "SQLITE_FULL")
}

// gormQueueStore is the production QueueStore over the on-device SQLite file.
type gormQueueStore struct {
	db *gorm.DB
}

// NewGormQueueStore wraps a GORM handle as a QueueStore.
func NewGormQueueStore(db *gorm.DB) QueueStore {
	return &gormQueueStore{db: db}
}

func (s *gormQueueStore) Put(entry *models.PendingReport) error {
	return s.db.Create(entry).Error
}

func (s *gormQueueStore) List() ([]models.PendingReport, error) {
	var entries []models.PendingReport
	if err := s.db.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *gormQueueStore) Delete(timestampKey int64) error {
	return s.db.Delete(&models.PendingReport{}, "timestamp_key = ?", timestampKey).Error
}

func (s *gormQueueStore) OldestKeys(limit int) ([]int64, error) {
	var keys []int64
	err := s.db.Model(&models.PendingReport{}).
		Order("timestamp_key ASC").
		Limit(limit).
		Pluck("timestamp_key", &keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *gormQueueStore) Update(entry *models.PendingReport) error {
	return s.db.Model(&models.PendingReport{}).
		Where("timestamp_key = ?", entry.TimestampKey).
		Updates(map[string]any{
			"attempts":        entry.Attempts,
			"next_attempt_at": entry.NextAttemptAt,
		}).Error
}
