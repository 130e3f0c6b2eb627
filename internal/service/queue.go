package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/opentimber/fieldsync/internal/logger"
	"github.com/opentimber/fieldsync/internal/store"
	"github.com/opentimber/fieldsync/models"
)

// queueSnapshot is the persisted representation of the queue under
// KeySyncQueue.
type queueSnapshot struct {
	Items []models.SyncItem `json:"items"`
}

type syncQueue struct {
	store      store.LocalStore
	logger     *logger.Logger
	maxRetries int

	mu    sync.Mutex
	items map[string]models.SyncItem
}

// NewSyncQueue loads the persisted queue snapshot and returns the queue.
// A corrupted snapshot is logged and replaced with an empty queue; items
// persisted mid-delivery (status syncing) are returned to pending.
func NewSyncQueue(ctx context.Context, st store.LocalStore, maxRetries int, log *logger.Logger) SyncQueue {
	q := &syncQueue{
		store:      st,
		logger:     log,
		maxRetries: maxRetries,
		items:      make(map[string]models.SyncItem),
	}
	q.load(ctx)
	return q
}

func (q *syncQueue) load(ctx context.Context) {
	raw, err := q.store.Get(ctx, KeySyncQueue)
	if err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			q.logger.Warn().Err(err).Str("func", "syncQueue.load").
				Msg("reading queue snapshot failed, starting empty")
		}
		return
	}

	var snap queueSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		q.logger.Warn().Err(err).Str("func", "syncQueue.load").
			Msg("queue snapshot corrupted, starting empty")
		return
	}

	for _, it := range snap.Items {
		// A crash mid-delivery leaves items stuck in syncing.
		if it.Status == models.SyncStatusSyncing {
			it.Status = models.SyncStatusPending
		}
		q.items[it.ID] = it
	}
}

func (q *syncQueue) persistLocked(ctx context.Context) error {
	snap := queueSnapshot{Items: make([]models.SyncItem, 0, len(q.items))}
	for _, it := range q.items {
		snap.Items = append(snap.Items, it)
	}
	sort.Slice(snap.Items, func(i, j int) bool {
		return snap.Items[i].EnqueuedAt.Before(snap.Items[j].EnqueuedAt)
	})

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling queue snapshot: %w", err)
	}
	if err := q.store.Set(ctx, KeySyncQueue, raw); err != nil {
		return fmt.Errorf("persisting queue snapshot: %w", err)
	}
	return nil
}

func (q *syncQueue) Enqueue(ctx context.Context, item models.SyncItem) error {
	if !item.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, item.Priority)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	existing, replaced := q.items[item.ID]
	if replaced && item.EnqueuedAt.Before(existing.EnqueuedAt) {
		// Last write wins: an older capture never overwrites a newer one.
		return nil
	}

	item.Status = models.SyncStatusPending
	item.RetryCount = 0
	item.LastError = ""
	q.items[item.ID] = item

	if err := q.persistLocked(ctx); err != nil {
		// keep memory and disk aligned when the write is rejected
		if replaced {
			q.items[item.ID] = existing
		} else {
			delete(q.items, item.ID)
		}
		return err
	}
	return nil
}

func (q *syncQueue) NextPending(ctx context.Context) (models.SyncItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var best models.SyncItem
	found := false
	for _, it := range q.items {
		if it.Status != models.SyncStatusPending {
			continue
		}
		if !found || higherPriority(it, best) {
			best = it
			found = true
		}
	}
	return best, found
}

// higherPriority reports whether a should be delivered before b: higher
// priority rank first, ties broken by oldest enqueue time.
func higherPriority(a, b models.SyncItem) bool {
	if a.Priority.Rank() != b.Priority.Rank() {
		return a.Priority.Rank() > b.Priority.Rank()
	}
	return a.EnqueuedAt.Before(b.EnqueuedAt)
}

func (q *syncQueue) MarkSyncing(ctx context.Context, id string) error {
	return q.transition(ctx, id, func(it *models.SyncItem) {
		it.Status = models.SyncStatusSyncing
	})
}

func (q *syncQueue) MarkSuccess(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	it, ok := q.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if it.Status != models.SyncStatusSyncing {
		// The entry was replaced by a newer enqueue while the old payload
		// was in flight. The delivered version is done; the replacement
		// stays pending for the next pick.
		return nil
	}
	delete(q.items, id)

	if err := q.persistLocked(ctx); err != nil {
		q.items[id] = it
		return err
	}
	return nil
}

func (q *syncQueue) MarkRetry(ctx context.Context, id string, cause error) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	prev, ok := q.items[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if prev.Status != models.SyncStatusSyncing {
		// Replaced mid-flight: the failure belongs to the superseded
		// payload and must not charge the replacement's retry budget.
		return false, nil
	}

	it := prev
	final := it.RetryCount >= q.maxRetries
	if final {
		it.Status = models.SyncStatusFailedFinal
	} else {
		it.RetryCount++
		it.Status = models.SyncStatusPending
	}
	if cause != nil {
		it.LastError = cause.Error()
	}
	q.items[id] = it

	if err := q.persistLocked(ctx); err != nil {
		q.items[id] = prev
		return false, err
	}
	return final, nil
}

func (q *syncQueue) MarkFailedFinal(ctx context.Context, id string, cause error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	prev, ok := q.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if prev.Status != models.SyncStatusSyncing {
		return nil
	}

	it := prev
	it.Status = models.SyncStatusFailedFinal
	if cause != nil {
		it.LastError = cause.Error()
	}
	q.items[id] = it

	if err := q.persistLocked(ctx); err != nil {
		q.items[id] = prev
		return err
	}
	return nil
}

func (q *syncQueue) ResetSyncing(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	changed := false
	for id, it := range q.items {
		if it.Status == models.SyncStatusSyncing {
			it.Status = models.SyncStatusPending
			q.items[id] = it
			changed = true
		}
	}
	if !changed {
		return nil
	}

	return q.persistLocked(ctx)
}

func (q *syncQueue) Items(ctx context.Context) []models.SyncItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.SyncItem, 0, len(q.items))
	for _, it := range q.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		return higherPriority(out[i], out[j])
	})
	return out
}

func (q *syncQueue) FailedFinal(ctx context.Context) []models.SyncItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.SyncItem, 0)
	for _, it := range q.items {
		if it.Status == models.SyncStatusFailedFinal {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EnqueuedAt.Before(out[j].EnqueuedAt)
	})
	return out
}

func (q *syncQueue) Len(ctx context.Context) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *syncQueue) transition(ctx context.Context, id string, apply func(*models.SyncItem)) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	prev, ok := q.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	it := prev
	apply(&it)
	q.items[id] = it

	if err := q.persistLocked(ctx); err != nil {
		// keep memory and disk aligned when the write is rejected
		q.items[id] = prev
		return err
	}
	return nil
}
