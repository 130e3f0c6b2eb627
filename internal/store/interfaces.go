package store

import (
	"context"
)

// LocalStore is the durable, synchronous key/value persistence port shared by
// the backup manager, the sync queue, and the snapshot providers. Keys are
// namespaced logical names ("backup/records", "sync/queue", "area/forms");
// each owner writes only its own keys.
//
// Implementations must make every Set atomic per key: a crash mid-write
// leaves either the old or the new value, never a mix.
type LocalStore interface {
	// Get returns the raw bytes stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set writes value under key, replacing any previous value. Fails with
	// ErrQuotaExceeded when the write would push the store past its size
	// bound; nothing is written in that case.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists all stored keys in lexicographic order.
	Keys(ctx context.Context) ([]string, error)
	// Close releases the underlying resources.
	Close() error
}
