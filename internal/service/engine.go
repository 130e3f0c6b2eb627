package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/opentimber/fieldsync/internal/adapter"
	"github.com/opentimber/fieldsync/internal/connectivity"
	"github.com/opentimber/fieldsync/internal/logger"
	"github.com/opentimber/fieldsync/models"
)

type syncEngine struct {
	queue   SyncQueue
	client  adapter.RegistryClient
	monitor connectivity.Monitor
	logger  *logger.Logger

	// onDelivered runs after an item is accepted by the registry and
	// removed from the queue. May be nil.
	onDelivered func(ctx context.Context, item models.SyncItem)

	busy    atomic.Bool
	stopped atomic.Bool
	wg      sync.WaitGroup
}

// NewSyncEngine returns an engine draining queue against client whenever
// monitor reports online. onDelivered, when non-nil, is invoked once per
// successfully delivered item.
func NewSyncEngine(
	queue SyncQueue,
	client adapter.RegistryClient,
	monitor connectivity.Monitor,
	onDelivered func(ctx context.Context, item models.SyncItem),
	log *logger.Logger,
) SyncEngine {
	return &syncEngine{
		queue:       queue,
		client:      client,
		monitor:     monitor,
		onDelivered: onDelivered,
		logger:      log,
	}
}

// Drain runs one drain cycle. The busy flag guarantees at most one cycle at
// a time: concurrent triggers (online edge, timer, manual sync) collapse
// into the cycle already running.
func (e *syncEngine) Drain(ctx context.Context) error {
	if e.stopped.Load() || !e.monitor.Online() {
		return nil
	}
	if !e.busy.CompareAndSwap(false, true) {
		return nil
	}
	e.wg.Add(1)
	defer e.wg.Done()
	defer e.busy.Store(false)

	for {
		if e.stopped.Load() || !e.monitor.Online() {
			if err := e.queue.ResetSyncing(ctx); err != nil {
				return fmt.Errorf("resetting queue after aborted drain: %w", err)
			}
			return nil
		}

		item, ok := e.queue.NextPending(ctx)
		if !ok {
			return nil
		}

		stop, err := e.deliver(ctx, item)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// deliver pushes one item and applies the matching queue transition. stop is
// true when the cycle should end early (registry unreachable or throttled:
// the item is pending again, so continuing would redeliver it immediately).
func (e *syncEngine) deliver(ctx context.Context, item models.SyncItem) (stop bool, err error) {
	if err := e.queue.MarkSyncing(ctx, item.ID); err != nil {
		return true, fmt.Errorf("marking item %s syncing: %w", item.ID, err)
	}

	submitErr := e.client.Submit(ctx, item)
	if submitErr == nil {
		if err := e.queue.MarkSuccess(ctx, item.ID); err != nil {
			return true, fmt.Errorf("marking item %s delivered: %w", item.ID, err)
		}
		if e.onDelivered != nil {
			e.onDelivered(ctx, item)
		}
		return false, nil
	}

	if adapter.IsRetryable(submitErr) {
		final, err := e.queue.MarkRetry(ctx, item.ID, submitErr)
		if err != nil {
			return true, fmt.Errorf("applying retry for item %s: %w", item.ID, err)
		}
		if final {
			e.logger.Warn().Err(submitErr).Str("item", item.ID).
				Str("func", "syncEngine.deliver").
				Msg("retry bound reached, item parked as failed-final")
		} else {
			e.logger.Debug().Err(submitErr).Str("item", item.ID).
				Str("func", "syncEngine.deliver").
				Msg("delivery failed, will retry")
		}
		return true, nil
	}

	e.logger.Warn().Err(submitErr).Str("item", item.ID).
		Str("func", "syncEngine.deliver").
		Msg("registry rejected item, parked as failed-final")
	if err := e.queue.MarkFailedFinal(ctx, item.ID, submitErr); err != nil {
		return true, fmt.Errorf("parking item %s: %w", item.ID, err)
	}
	return false, nil
}

// Stop prevents new drain cycles and waits for the active one to wind down.
func (e *syncEngine) Stop() {
	e.stopped.Store(true)
	e.wg.Wait()
}
