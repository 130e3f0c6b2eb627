package workers

import (
	"context"
	"sync"
	"time"
)

// TickerScheduler is the production Scheduler built on time.Ticker
// goroutines. All tasks share one base context; Shutdown cancels it, runs the
// registered shutdown hooks, and waits for every task goroutine to exit.
type TickerScheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	shutdownHooks []func(ctx context.Context)
	shutdownOnce  sync.Once
}

func NewTickerScheduler() *TickerScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &TickerScheduler{ctx: ctx, cancel: cancel}
}

// Every implements Scheduler. fn runs on its own goroutine once per interval
// until stop is called or the scheduler shuts down. A zero or negative
// interval returns a no-op stop without scheduling anything.
func (s *TickerScheduler) Every(interval time.Duration, fn func(ctx context.Context)) (stop func()) {
	if interval <= 0 {
		return func() {}
	}

	taskCtx, taskCancel := context.WithCancel(s.ctx)
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-taskCtx.Done():
				return
			case <-t.C:
				fn(taskCtx)
			}
		}
	}()

	return taskCancel
}

// OnShutdown implements Scheduler.
func (s *TickerScheduler) OnShutdown(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdownHooks = append(s.shutdownHooks, fn)
}

// Shutdown runs the registered shutdown hooks in registration order with
// ctx, then cancels all periodic tasks and waits for their goroutines to
// exit. Safe to call more than once.
func (s *TickerScheduler) Shutdown(ctx context.Context) {
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		hooks := make([]func(ctx context.Context), len(s.shutdownHooks))
		copy(hooks, s.shutdownHooks)
		s.mu.Unlock()

		for _, hook := range hooks {
			hook(ctx)
		}

		s.cancel()
		s.wg.Wait()
	})
}

// ManualScheduler is the synchronous test double for Scheduler. Ticks and
// shutdown are driven explicitly by the test.
type ManualScheduler struct {
	mu            sync.Mutex
	tasks         []manualTask
	shutdownHooks []func(ctx context.Context)
}

type manualTask struct {
	interval time.Duration
	fn       func(ctx context.Context)
	stopped  *bool
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) Every(interval time.Duration, fn func(ctx context.Context)) (stop func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stopped := false
	s.tasks = append(s.tasks, manualTask{interval: interval, fn: fn, stopped: &stopped})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		stopped = true
	}
}

func (s *ManualScheduler) OnShutdown(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdownHooks = append(s.shutdownHooks, fn)
}

// Tick fires every non-stopped periodic task once, synchronously.
func (s *ManualScheduler) Tick(ctx context.Context) {
	s.mu.Lock()
	tasks := make([]manualTask, len(s.tasks))
	copy(tasks, s.tasks)
	s.mu.Unlock()

	for _, task := range tasks {
		if !*task.stopped {
			task.fn(ctx)
		}
	}
}

// FireShutdown runs the registered shutdown hooks synchronously.
func (s *ManualScheduler) FireShutdown(ctx context.Context) {
	s.mu.Lock()
	hooks := make([]func(ctx context.Context), len(s.shutdownHooks))
	copy(hooks, s.shutdownHooks)
	s.mu.Unlock()

	for _, hook := range hooks {
		hook(ctx)
	}
}

// TaskCount reports how many periodic tasks have been registered.
func (s *ManualScheduler) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
