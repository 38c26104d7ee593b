package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicsync/models"
)

func submission(title string) models.ReportSubmission {
	return models.ReportSubmission{
		Title:       title,
		Description: "desc",
		Category:    "pothole",
	}
}

func TestEnqueue_KeysStrictlyIncrease(t *testing.T) {
	queue := NewDurableQueue(newFakeQueueStore(-1))
	// freeze the clock so every enqueue lands in the same millisecond
	frozen := time.UnixMilli(1700000000000)
	queue.now = func() time.Time { return frozen }

	var keys []int64
	for i := 0; i < 10; i++ {
		entry, err := queue.Enqueue(submission("r"))
		require.NoError(t, err)
		keys = append(keys, entry.TimestampKey)
	}

	for i := 1; i < len(keys); i++ {
		assert.Greater(t, keys[i], keys[i-1], "keys must never collide, even within one millisecond")
	}
	assert.Equal(t, int64(1700000000000), keys[0])
}

func TestEnqueue_AssignsIdempotencyKey(t *testing.T) {
	queue := NewDurableQueue(newFakeQueueStore(-1))

	a, err := queue.Enqueue(submission("a"))
	require.NoError(t, err)
	b, err := queue.Enqueue(submission("b"))
	require.NoError(t, err)

	assert.NotEmpty(t, a.IdempotencyKey)
	assert.NotEmpty(t, b.IdempotencyKey)
	assert.NotEqual(t, a.IdempotencyKey, b.IdempotencyKey)
}

func TestEnqueue_QuotaEvictsFiveOldestThenSucceeds(t *testing.T) {
	store := newFakeQueueStore(7)
	queue := NewDurableQueue(store)

	var keys []int64
	for i := 0; i < 7; i++ {
		entry, err := queue.Enqueue(submission("old"))
		require.NoError(t, err)
		keys = append(keys, entry.TimestampKey)
	}
	require.Equal(t, 7, store.len())

	// 8th write trips the quota: 5 oldest go, the retry lands
	entry, err := queue.Enqueue(submission("new"))
	require.NoError(t, err)
	assert.Equal(t, 3, store.len(), "2 survivors + 1 new entry")

	remaining, err := queue.ListAll()
	require.NoError(t, err)
	var remainingKeys []int64
	for _, e := range remaining {
		remainingKeys = append(remainingKeys, e.TimestampKey)
	}
	assert.ElementsMatch(t, []int64{keys[5], keys[6], entry.TimestampKey}, remainingKeys)
}

func TestEnqueue_EmptyQueuePersistentQuotaFails(t *testing.T) {
	queue := NewDurableQueue(newFakeQueueStore(0))

	_, err := queue.Enqueue(submission("doomed"))
	assert.ErrorIs(t, err, ErrStorageExhausted)
}

func TestRemoveByKey_AbsentIsNoop(t *testing.T) {
	store := newFakeQueueStore(-1)
	queue := NewDurableQueue(store)

	_, err := queue.Enqueue(submission("keep"))
	require.NoError(t, err)

	require.NoError(t, queue.RemoveByKey(42))
	assert.Equal(t, 1, store.len())
}

func TestReschedule_PushesNextAttemptForward(t *testing.T) {
	store := newFakeQueueStore(-1)
	queue := NewDurableQueue(store)

	entry, err := queue.Enqueue(submission("flaky"))
	require.NoError(t, err)

	next := time.Now().Add(time.Minute)
	require.NoError(t, queue.Reschedule(entry, next))

	entries, err := queue.ListAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Attempts)
	assert.WithinDuration(t, next.UTC(), entries[0].NextAttemptAt, time.Second)
}
