// Package workers provides the Scheduler port used by the backup manager,
// the connectivity monitor, and the periodic sync drain.
package workers

import (
	"context"
	"time"
)

// Scheduler abstracts periodic execution and shutdown hooks so components
// never own raw timers. Timers start only when a component's Init calls
// Every, never as a construction side effect, and tests can substitute
// [ManualScheduler] to fire ticks synchronously.
type Scheduler interface {
	// Every runs fn on the given interval until the returned stop function
	// is called or the scheduler shuts down.
	Every(interval time.Duration, fn func(ctx context.Context)) (stop func())

	// OnShutdown registers fn to run once during scheduler shutdown, in
	// registration order.
	OnShutdown(fn func(ctx context.Context))
}
