// Package adapter implements the outbound transport boundary: the HTTP
// client talking to the remote regulatory registry.
package adapter

import (
	"context"

	"github.com/opentimber/fieldsync/models"
)

// RegistryClient is the port the sync engine and the backup manager use to
// reach the remote registry. Outcomes are communicated through the sentinel
// errors in errors.go: nil means accepted, retryable failures match
// IsRetryable, everything else is a final rejection.
type RegistryClient interface {
	// Submit delivers one queued item to the registry. The registry
	// deduplicates by item ID, so resubmitting after an ambiguous failure
	// is safe.
	Submit(ctx context.Context, item models.SyncItem) error

	// UploadBackup pushes a best-effort remote copy of a manual backup.
	UploadBackup(ctx context.Context, record models.BackupRecord) error

	// Ping probes the registry health endpoint. A nil error means the
	// registry is reachable.
	Ping(ctx context.Context) error

	// UserID returns the subject claim of the device token, or "" when the
	// token is absent or carries none.
	UserID() string
}
