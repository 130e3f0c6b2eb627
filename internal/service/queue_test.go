package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentimber/fieldsync/internal/logger"
	"github.com/opentimber/fieldsync/internal/store"
	"github.com/opentimber/fieldsync/models"
)

func newTestQueue(t *testing.T) (SyncQueue, store.LocalStore) {
	t.Helper()
	st := store.NewMemoryStore(0)
	return NewSyncQueue(context.Background(), st, 3, logger.Nop()), st
}

func testItem(id string, priority models.Priority, enqueuedAt time.Time) models.SyncItem {
	return models.SyncItem{
		ID:         id,
		Kind:       "volume-entry",
		Payload:    json.RawMessage(`{"volume_m3":12.5}`),
		EnqueuedAt: enqueuedAt,
		Priority:   priority,
	}
}

// ── Enqueue ─────────────────────────────────────────────────────────────────

func TestSyncQueue_Enqueue_IdempotentByID(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	at := time.Now().UTC()

	require.NoError(t, q.Enqueue(ctx, testItem("r-1", models.PriorityMedium, at)))
	require.NoError(t, q.Enqueue(ctx, testItem("r-1", models.PriorityMedium, at)))

	assert.Equal(t, 1, q.Len(ctx))
}

func TestSyncQueue_Enqueue_LastWriteWins(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	at := time.Now().UTC()

	older := testItem("r-1", models.PriorityLow, at)
	older.Payload = json.RawMessage(`{"volume_m3":1}`)
	newer := testItem("r-1", models.PriorityLow, at.Add(time.Minute))
	newer.Payload = json.RawMessage(`{"volume_m3":2}`)

	require.NoError(t, q.Enqueue(ctx, newer))
	require.NoError(t, q.Enqueue(ctx, older))

	items := q.Items(ctx)
	require.Len(t, items, 1)
	assert.JSONEq(t, `{"volume_m3":2}`, string(items[0].Payload),
		"older capture must not overwrite the newer one")
}

func TestSyncQueue_Enqueue_ReplaceResetsRetryBookkeeping(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	at := time.Now().UTC()

	require.NoError(t, q.Enqueue(ctx, testItem("r-1", models.PriorityLow, at)))
	require.NoError(t, q.MarkSyncing(ctx, "r-1"))
	_, err := q.MarkRetry(ctx, "r-1", errors.New("boom"))
	require.NoError(t, err)

	require.NoError(t, q.Enqueue(ctx, testItem("r-1", models.PriorityLow, at.Add(time.Second))))

	items := q.Items(ctx)
	require.Len(t, items, 1)
	assert.Zero(t, items[0].RetryCount)
	assert.Equal(t, models.SyncStatusPending, items[0].Status)
	assert.Empty(t, items[0].LastError)
}

func TestSyncQueue_Enqueue_RejectsUnknownPriority(t *testing.T) {
	q, _ := newTestQueue(t)

	err := q.Enqueue(context.Background(), testItem("r-1", "urgent", time.Now()))

	assert.ErrorIs(t, err, ErrInvalidPriority)
}

// ── Ordering ────────────────────────────────────────────────────────────────

func TestSyncQueue_NextPending_PriorityThenAge(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	base := time.Now().UTC()

	// enqueue out of order on purpose
	require.NoError(t, q.Enqueue(ctx, testItem("low", models.PriorityLow, base)))
	require.NoError(t, q.Enqueue(ctx, testItem("critical", models.PriorityCritical, base.Add(3*time.Second))))
	require.NoError(t, q.Enqueue(ctx, testItem("high", models.PriorityHigh, base.Add(time.Second))))
	require.NoError(t, q.Enqueue(ctx, testItem("medium", models.PriorityMedium, base.Add(2*time.Second))))

	var order []string
	for {
		item, ok := q.NextPending(ctx)
		if !ok {
			break
		}
		order = append(order, item.ID)
		require.NoError(t, q.MarkSyncing(ctx, item.ID))
		require.NoError(t, q.MarkSuccess(ctx, item.ID))
	}

	assert.Equal(t, []string{"critical", "high", "medium", "low"}, order)
}

func TestSyncQueue_NextPending_TiesBrokenByEnqueueTime(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, q.Enqueue(ctx, testItem("second", models.PriorityHigh, base.Add(time.Second))))
	require.NoError(t, q.Enqueue(ctx, testItem("first", models.PriorityHigh, base)))

	item, ok := q.NextPending(ctx)
	require.True(t, ok)
	assert.Equal(t, "first", item.ID)
}

func TestSyncQueue_NextPending_SkipsNonPending(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, q.Enqueue(ctx, testItem("a", models.PriorityCritical, base)))
	require.NoError(t, q.Enqueue(ctx, testItem("b", models.PriorityLow, base)))
	require.NoError(t, q.MarkSyncing(ctx, "a"))

	item, ok := q.NextPending(ctx)
	require.True(t, ok)
	assert.Equal(t, "b", item.ID)

	require.NoError(t, q.MarkSyncing(ctx, "b"))
	require.NoError(t, q.MarkFailedFinal(ctx, "b", errors.New("rejected")))
	_, ok = q.NextPending(ctx)
	assert.False(t, ok)
}

// ── Retry bound ─────────────────────────────────────────────────────────────

func TestSyncQueue_MarkRetry_BoundedByMaxRetries(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	cause := errors.New("registry unavailable")

	require.NoError(t, q.Enqueue(ctx, testItem("r-1", models.PriorityHigh, time.Now().UTC())))

	// MaxRetries=3: three failures re-pend with growing retry count
	for want := 1; want <= 3; want++ {
		require.NoError(t, q.MarkSyncing(ctx, "r-1"))
		final, err := q.MarkRetry(ctx, "r-1", cause)
		require.NoError(t, err)
		assert.False(t, final)

		items := q.Items(ctx)
		require.Len(t, items, 1)
		assert.Equal(t, want, items[0].RetryCount)
		assert.Equal(t, models.SyncStatusPending, items[0].Status)
	}

	// the fourth failure parks the item
	require.NoError(t, q.MarkSyncing(ctx, "r-1"))
	final, err := q.MarkRetry(ctx, "r-1", cause)
	require.NoError(t, err)
	assert.True(t, final)

	failed := q.FailedFinal(ctx)
	require.Len(t, failed, 1)
	assert.Equal(t, "r-1", failed[0].ID)
	assert.Equal(t, 3, failed[0].RetryCount)
	assert.Equal(t, cause.Error(), failed[0].LastError)

	_, ok := q.NextPending(ctx)
	assert.False(t, ok, "failed-final items never re-enter delivery")
}

// ── Replacement while in flight ─────────────────────────────────────────────

func TestSyncQueue_MarkSuccess_KeepsItemReplacedMidFlight(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	at := time.Now().UTC()

	stale := testItem("r-1", models.PriorityHigh, at)
	stale.Payload = json.RawMessage(`{"volume_m3":1}`)
	require.NoError(t, q.Enqueue(ctx, stale))
	require.NoError(t, q.MarkSyncing(ctx, "r-1"))

	// a corrected capture lands while the stale payload is in flight
	corrected := testItem("r-1", models.PriorityHigh, at.Add(time.Second))
	corrected.Payload = json.RawMessage(`{"volume_m3":2}`)
	require.NoError(t, q.Enqueue(ctx, corrected))

	require.NoError(t, q.MarkSuccess(ctx, "r-1"))

	item, ok := q.NextPending(ctx)
	require.True(t, ok, "the corrected capture must stay queued")
	assert.Equal(t, "r-1", item.ID)
	assert.JSONEq(t, `{"volume_m3":2}`, string(item.Payload))
}

func TestSyncQueue_MarkRetry_IgnoresItemReplacedMidFlight(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	at := time.Now().UTC()

	require.NoError(t, q.Enqueue(ctx, testItem("r-1", models.PriorityHigh, at)))
	require.NoError(t, q.MarkSyncing(ctx, "r-1"))
	require.NoError(t, q.Enqueue(ctx, testItem("r-1", models.PriorityHigh, at.Add(time.Second))))

	final, err := q.MarkRetry(ctx, "r-1", errors.New("registry unavailable"))
	require.NoError(t, err)
	assert.False(t, final)

	items := q.Items(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, models.SyncStatusPending, items[0].Status)
	assert.Zero(t, items[0].RetryCount,
		"the superseded delivery must not charge the replacement's retry budget")
	assert.Empty(t, items[0].LastError)
}

func TestSyncQueue_MarkFailedFinal_IgnoresItemReplacedMidFlight(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	at := time.Now().UTC()

	require.NoError(t, q.Enqueue(ctx, testItem("r-1", models.PriorityHigh, at)))
	require.NoError(t, q.MarkSyncing(ctx, "r-1"))
	require.NoError(t, q.Enqueue(ctx, testItem("r-1", models.PriorityHigh, at.Add(time.Second))))

	require.NoError(t, q.MarkFailedFinal(ctx, "r-1", errors.New("rejected")))

	assert.Empty(t, q.FailedFinal(ctx))
	item, ok := q.NextPending(ctx)
	require.True(t, ok)
	assert.Equal(t, "r-1", item.ID)
}

func TestSyncQueue_Transitions_UnknownID(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	assert.ErrorIs(t, q.MarkSyncing(ctx, "ghost"), ErrItemNotFound)
	assert.ErrorIs(t, q.MarkSuccess(ctx, "ghost"), ErrItemNotFound)
	assert.ErrorIs(t, q.MarkFailedFinal(ctx, "ghost", nil), ErrItemNotFound)

	_, err := q.MarkRetry(ctx, "ghost", nil)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

// ── ResetSyncing ────────────────────────────────────────────────────────────

func TestSyncQueue_ResetSyncing(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, q.Enqueue(ctx, testItem("a", models.PriorityHigh, base)))
	require.NoError(t, q.Enqueue(ctx, testItem("b", models.PriorityLow, base)))
	require.NoError(t, q.MarkSyncing(ctx, "a"))

	require.NoError(t, q.ResetSyncing(ctx))

	for _, it := range q.Items(ctx) {
		assert.Equal(t, models.SyncStatusPending, it.Status)
	}
}

// ── Persistence ─────────────────────────────────────────────────────────────

func TestSyncQueue_PersistsAcrossRestart(t *testing.T) {
	st := store.NewMemoryStore(0)
	ctx := context.Background()

	q := NewSyncQueue(ctx, st, 3, logger.Nop())
	require.NoError(t, q.Enqueue(ctx, testItem("r-1", models.PriorityCritical, time.Now().UTC())))
	require.NoError(t, q.MarkSyncing(ctx, "r-1"))

	// a new queue over the same store sees the item, with the stale
	// syncing status healed back to pending
	reborn := NewSyncQueue(ctx, st, 3, logger.Nop())
	items := reborn.Items(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, "r-1", items[0].ID)
	assert.Equal(t, models.SyncStatusPending, items[0].Status)
}

func TestSyncQueue_CorruptedSnapshotStartsEmpty(t *testing.T) {
	st := store.NewMemoryStore(0)
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, KeySyncQueue, []byte("{not json")))

	q := NewSyncQueue(ctx, st, 3, logger.Nop())

	assert.Zero(t, q.Len(ctx))

	// the queue stays usable after discarding the corrupted snapshot
	require.NoError(t, q.Enqueue(ctx, testItem("r-1", models.PriorityLow, time.Now().UTC())))
	assert.Equal(t, 1, q.Len(ctx))
}

func TestSyncQueue_QuotaExceededSurfacesToCaller(t *testing.T) {
	st := store.NewMemoryStore(64)
	ctx := context.Background()
	q := NewSyncQueue(ctx, st, 3, logger.Nop())

	item := testItem("r-1", models.PriorityLow, time.Now().UTC())
	item.Payload = json.RawMessage(`{"filler":"` + string(bytesOfLen(200)) + `"}`)

	err := q.Enqueue(ctx, item)

	assert.ErrorIs(t, err, store.ErrQuotaExceeded)
}

// flakyStore fails the next `failures` Set calls, then recovers.
type flakyStore struct {
	store.LocalStore
	failures int
}

func (s *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	if s.failures > 0 {
		s.failures--
		return store.ErrQuotaExceeded
	}
	return s.LocalStore.Set(ctx, key, value)
}

func TestSyncQueue_MarkSyncing_RolledBackOnPersistFailure(t *testing.T) {
	st := &flakyStore{LocalStore: store.NewMemoryStore(0)}
	ctx := context.Background()
	q := NewSyncQueue(ctx, st, 3, logger.Nop())

	require.NoError(t, q.Enqueue(ctx, testItem("r-1", models.PriorityHigh, time.Now().UTC())))

	st.failures = 1
	require.Error(t, q.MarkSyncing(ctx, "r-1"))

	// once the store recovers the item must still be deliverable
	item, ok := q.NextPending(ctx)
	require.True(t, ok, "item stuck in syncing after a failed persist")
	assert.Equal(t, "r-1", item.ID)
	require.NoError(t, q.MarkSyncing(ctx, "r-1"))
	require.NoError(t, q.MarkSuccess(ctx, "r-1"))
	assert.Zero(t, q.Len(ctx))
}

func TestSyncQueue_MarkSuccess_RolledBackOnPersistFailure(t *testing.T) {
	st := &flakyStore{LocalStore: store.NewMemoryStore(0)}
	ctx := context.Background()
	q := NewSyncQueue(ctx, st, 3, logger.Nop())

	require.NoError(t, q.Enqueue(ctx, testItem("r-1", models.PriorityHigh, time.Now().UTC())))
	require.NoError(t, q.MarkSyncing(ctx, "r-1"))

	st.failures = 1
	require.Error(t, q.MarkSuccess(ctx, "r-1"))

	// still tracked, still syncing: an aborted drain resets it and the
	// next cycle delivers it again
	require.Equal(t, 1, q.Len(ctx))
	require.NoError(t, q.ResetSyncing(ctx))
	item, ok := q.NextPending(ctx)
	require.True(t, ok)
	assert.Equal(t, "r-1", item.ID)
}

func bytesOfLen(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'x'
	}
	return b
}
