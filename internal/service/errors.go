package service

import "errors"

// Sentinel errors surfaced by the backup and sync services. Callers should
// match with [errors.Is].
var (
	// ErrBackupNotFound is returned by restore and export operations when
	// no retained record carries the requested id.
	ErrBackupNotFound = errors.New("backup not found")

	// ErrInvalidBackupFormat is returned by ImportBackup when the input is
	// not a well-formed recovery point, misses required fields, or fails
	// checksum verification. Nothing is persisted in that case.
	ErrInvalidBackupFormat = errors.New("invalid backup format")

	// ErrRecordNotFound is returned when a field record id is unknown.
	ErrRecordNotFound = errors.New("field record not found")

	// ErrItemNotFound is returned by queue transitions targeting an id
	// that is not in the queue.
	ErrItemNotFound = errors.New("sync item not found")

	// ErrInvalidPriority is returned by Enqueue when the caller-assigned
	// priority is not one of the four known classes.
	ErrInvalidPriority = errors.New("invalid sync priority")
)
