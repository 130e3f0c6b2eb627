package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/opentimber/fieldsync/models"
)

// SyncQueue is the ordered, priority-aware collection of pending outbound
// records. The queue owns the "sync/queue" store key; all status transitions
// go through it so the persisted snapshot never diverges from memory.
type SyncQueue interface {
	// Enqueue inserts item, replacing any existing entry with the same ID
	// when the new EnqueuedAt is not older (last-write-wins; the old
	// entry's retry bookkeeping is discarded).
	Enqueue(ctx context.Context, item models.SyncItem) error

	// NextPending returns the highest-priority pending item, ties broken
	// by EnqueuedAt ascending. ok is false when nothing is pending.
	NextPending(ctx context.Context) (item models.SyncItem, ok bool)

	// MarkSyncing transitions the item to syncing for the current drain.
	MarkSyncing(ctx context.Context, id string) error

	// MarkSuccess removes the delivered item from the queue. When the
	// entry was replaced by a newer enqueue while the delivery was in
	// flight (status no longer syncing), the replacement is kept pending.
	MarkSuccess(ctx context.Context, id string) error

	// MarkRetry applies the retry transition after a retryable delivery
	// failure: below the retry bound the item returns to pending with
	// RetryCount incremented, at the bound it is parked as failed-final.
	// final reports which branch was taken. An entry replaced mid-flight
	// is left untouched.
	MarkRetry(ctx context.Context, id string, cause error) (final bool, err error)

	// MarkFailedFinal parks the item as failed-final regardless of its
	// retry count (non-retryable registry rejection). An entry replaced
	// mid-flight is left untouched.
	MarkFailedFinal(ctx context.Context, id string, cause error) error

	// ResetSyncing returns every item stuck in syncing to pending. Called
	// when a drain cycle aborts early.
	ResetSyncing(ctx context.Context) error

	// Items returns a copy of all queue entries.
	Items(ctx context.Context) []models.SyncItem

	// FailedFinal returns the items retained for manual operator action.
	FailedFinal(ctx context.Context) []models.SyncItem

	// Len reports the number of queue entries.
	Len(ctx context.Context) int
}

// SyncEngine drains the queue against the registry when connectivity allows.
type SyncEngine interface {
	// Drain runs one drain cycle: eligible items are delivered
	// sequentially in priority order. Calling Drain while a cycle is
	// active, while offline, or after Stop is a no-op.
	Drain(ctx context.Context) error

	// Stop prevents new deliveries and waits for the in-flight item of an
	// active cycle to finish.
	Stop()
}

// SnapshotProvider is one named domain area participating in backups. Both
// operations are fallible and the backup manager isolates failures per area.
type SnapshotProvider interface {
	Name() string
	Collect(ctx context.Context) (json.RawMessage, error)
	Restore(ctx context.Context, payload json.RawMessage) error
}

// BackupService manages the snapshot lifecycle: periodic and manual capture,
// restore, portable export/import, rotation, and cleanup.
type BackupService interface {
	// CreateAutoBackup snapshots all providers into a "local" record.
	// Provider failures are logged and their area omitted; only storage
	// failures propagate.
	CreateAutoBackup(ctx context.Context) (models.BackupRecord, error)

	// CreateManualBackup snapshots into a "manual" record and additionally
	// attempts a best-effort remote copy whose failure never fails the
	// local backup.
	CreateManualBackup(ctx context.Context, description string) (models.BackupRecord, error)

	// RestoreFromBackup replays the record's area payloads into their
	// providers, best-effort per area. Fails with ErrBackupNotFound when
	// id is absent.
	RestoreFromBackup(ctx context.Context, id string) error

	// ExportBackup serializes the record as a checksummed RecoveryPoint.
	ExportBackup(ctx context.Context, id string) ([]byte, error)

	// ImportBackup validates and persists a RecoveryPoint produced by
	// ExportBackup, via the normal save path (subject to rotation).
	ImportBackup(ctx context.Context, serialized []byte) (models.BackupRecord, error)

	// CleanupOldBackups removes records older than maxAge and returns how
	// many were removed.
	CleanupOldBackups(ctx context.Context, maxAge time.Duration) (int, error)

	// GetBackupStats summarises the retained collection.
	GetBackupStats(ctx context.Context) (models.BackupStats, error)

	// List returns all retained backup records, newest first.
	List(ctx context.Context) ([]models.BackupRecord, error)
}

// RecordService captures field records locally and hands them to the sync
// queue. It doubles as the "records" snapshot provider.
type RecordService interface {
	// Capture persists a new field record and enqueues it for delivery
	// with the caller-assigned priority.
	Capture(ctx context.Context, kind string, payload json.RawMessage, priority models.Priority) (models.FieldRecord, error)

	// MarkSynced flips the record's synced flag to true. The flag is
	// monotonic: marking an already-synced record is a no-op.
	MarkSynced(ctx context.Context, id string) error

	// List returns all locally captured records in capture order.
	List(ctx context.Context) ([]models.FieldRecord, error)
}
