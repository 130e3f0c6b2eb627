package client

import "context"

// Client is the minimal lifecycle contract for runnable client applications.
type Client interface {
	// Init starts timers and subscriptions. Nothing runs before Init.
	Init(ctx context.Context) error
	// Run blocks until shutdown is requested.
	Run() error
	// Dispose tears the runtime down. Idempotent.
	Dispose(ctx context.Context)
}
