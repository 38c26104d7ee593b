package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicsync/models"
)

type syncEnv struct {
	queue   *DurableQueue
	store   *fakeQueueStore
	api     *fakeAPI
	state   *StateStore
	service *SyncService
	notes   *memNotificationStore
}

func newSyncEnv(t *testing.T) *syncEnv {
	t.Helper()
	store := newFakeQueueStore(-1)
	queue := NewDurableQueue(store)
	api := &fakeAPI{user: &models.User{ID: "u1"}}
	state := NewStateStore()
	notes := &memNotificationStore{}
	notifier := NewNotifier(notes)
	session := NewSession()

	achievements := NewAchievementService(api, state, notifier, time.Millisecond)
	achievements.sleep = func(time.Duration) {}

	service := NewSyncService(queue, api, state, session, notifier, achievements)
	return &syncEnv{queue: queue, store: store, api: api, state: state, service: service, notes: notes}
}

// enqueueOffline queues a submission and projects its placeholder, the way a
// failed direct submission does.
func (e *syncEnv) enqueueOffline(t *testing.T, title string) *models.PendingReport {
	t.Helper()
	entry, err := e.queue.Enqueue(submission(title))
	require.NoError(t, err)
	e.state.AddReport(entry.AsPlaceholder())
	return entry
}

func TestDrain_EventualConsistency(t *testing.T) {
	env := newSyncEnv(t)
	const n = 5
	for i := 0; i < n; i++ {
		env.enqueueOffline(t, fmt.Sprintf("offline-%d", i))
	}

	synced, err := env.service.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, n, synced)

	reports := env.state.Reports()
	require.Len(t, reports, n)
	for _, r := range reports {
		assert.False(t, r.IsPending, "no placeholder may survive a full drain")
		assert.NotContains(t, r.ID, models.PendingIDPrefix)
	}
	assert.Equal(t, 0, env.store.len(), "queue must be empty after a clean drain")
}

func TestDrain_EmptyQueueIsNoop(t *testing.T) {
	env := newSyncEnv(t)

	synced, err := env.service.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, synced)
	assert.Zero(t, len(env.api.createdKeys), "no remote call without queued entries")
}

func TestDrain_SecondEntryFailureDoesNotAbortOrDuplicate(t *testing.T) {
	env := newSyncEnv(t)
	first := env.enqueueOffline(t, "first")
	second := env.enqueueOffline(t, "second")
	third := env.enqueueOffline(t, "third")

	calls := map[string]int{}
	env.api.createReport = func(payload models.ReportSubmission, _ string) (*models.Report, error) {
		calls[payload.Title]++
		if payload.Title == "second" {
			return nil, errors.New("503 service unavailable")
		}
		return &models.Report{ID: "srv-" + payload.Title, CreatedAt: time.Now()}, nil
	}

	synced, err := env.service.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, synced)

	// entries 1 and 3 each processed once, entry 2 retained
	assert.Equal(t, 1, calls["first"])
	assert.Equal(t, 1, calls["second"])
	assert.Equal(t, 1, calls["third"])

	remaining, err := env.queue.ListAll()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, second.TimestampKey, remaining[0].TimestampKey)
	assert.Equal(t, 1, remaining[0].Attempts)

	// placeholders 1 and 3 replaced, 2 still pending
	_, stillPending := env.state.Report(first.PlaceholderID())
	assert.False(t, stillPending)
	_, secondPending := env.state.Report(second.PlaceholderID())
	assert.True(t, secondPending)
	_, thirdPending := env.state.Report(third.PlaceholderID())
	assert.False(t, thirdPending)
}

func TestDrain_ProcessesOldestFirst(t *testing.T) {
	env := newSyncEnv(t)
	env.enqueueOffline(t, "a")
	env.enqueueOffline(t, "b")
	env.enqueueOffline(t, "c")

	var order []string
	env.api.createReport = func(payload models.ReportSubmission, _ string) (*models.Report, error) {
		order = append(order, payload.Title)
		return &models.Report{ID: "srv-" + payload.Title, CreatedAt: time.Now()}, nil
	}

	_, err := env.service.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestDrain_BackoffSkipsEntriesNotYetDue(t *testing.T) {
	env := newSyncEnv(t)
	env.enqueueOffline(t, "flaky")

	env.api.createReport = func(models.ReportSubmission, string) (*models.Report, error) {
		return nil, errors.New("network down")
	}
	_, err := env.service.Drain(context.Background())
	require.NoError(t, err)

	// immediately after the failure the entry is backed off
	env.api.createReport = func(models.ReportSubmission, string) (*models.Report, error) {
		t.Fatal("entry must not be retried before its backoff elapses")
		return nil, nil
	}
	synced, err := env.service.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, synced)

	remaining, err := env.queue.ListAll()
	require.NoError(t, err)
	require.Len(t, remaining, 1, "skipped entries stay queued")
}

func TestDrain_RetriesReuseTheIdempotencyKey(t *testing.T) {
	env := newSyncEnv(t)
	entry := env.enqueueOffline(t, "retry-me")

	fail := true
	var keys []string
	env.api.createReport = func(_ models.ReportSubmission, key string) (*models.Report, error) {
		keys = append(keys, key)
		if fail {
			return nil, errors.New("timeout")
		}
		return &models.Report{ID: "srv-1", CreatedAt: time.Now()}, nil
	}

	_, err := env.service.Drain(context.Background())
	require.NoError(t, err)

	// make the entry due again and let it succeed
	fail = false
	require.NoError(t, env.store.Update(&models.PendingReport{
		TimestampKey:  entry.TimestampKey,
		Attempts:      1,
		NextAttemptAt: time.Now().Add(-time.Second),
	}))
	_, err = env.service.Drain(context.Background())
	require.NoError(t, err)

	require.Len(t, keys, 2)
	assert.Equal(t, keys[0], keys[1], "the service needs a stable key to deduplicate a lost ack")
}

func TestDrain_SuccessTriggersAchievementCheck(t *testing.T) {
	env := newSyncEnv(t)
	env.enqueueOffline(t, "one")

	_, err := env.service.Drain(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, env.api.getUserCalls, 1, "award loop runs on a fresh snapshot after sync")
	assert.NotEmpty(t, env.notes.byKind(models.NotificationSyncCompleted))
}

func TestBackoff_DoublesAndCaps(t *testing.T) {
	env := newSyncEnv(t)
	env.service.SetBackoff(time.Second, 10*time.Second)

	assert.Equal(t, time.Second, env.service.backoff(0))
	assert.Equal(t, 2*time.Second, env.service.backoff(1))
	assert.Equal(t, 4*time.Second, env.service.backoff(2))
	assert.Equal(t, 10*time.Second, env.service.backoff(5))
}
