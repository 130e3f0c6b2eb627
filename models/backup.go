package models

import (
	"encoding/json"
	"time"
)

// BackupKind classifies where a backup record came from.
const (
	BackupKindLocal  = "local"
	BackupKindCloud  = "cloud"
	BackupKindManual = "manual"
)

// BackupRecord is one immutable point-in-time snapshot of application state.
// Records are created by the backup manager, never mutated afterwards, and
// removed only by rotation or age-based cleanup.
type BackupRecord struct {
	ID          string                     `json:"id"`
	CreatedAt   time.Time                  `json:"created_at"`
	Kind        string                     `json:"kind"`
	Description string                     `json:"description,omitempty"`
	Payload     map[string]json.RawMessage `json:"payload"`
	Metadata    BackupMetadata             `json:"metadata"`
}

// BackupMetadata carries versioning and provenance information for a backup
// record. UserID is optional: it is only set when the device token carries a
// subject claim.
type BackupMetadata struct {
	SchemaVersion int    `json:"schema_version"`
	ClientInfo    string `json:"client_info"`
	SessionID     string `json:"session_id"`
	UserID        string `json:"user_id,omitempty"`
}

// BackupStats summarises the locally retained backup collection.
type BackupStats struct {
	Total  int            `json:"total"`
	ByKind map[string]int `json:"by_kind"`
	Oldest *time.Time     `json:"oldest,omitempty"`
	Newest *time.Time     `json:"newest,omitempty"`
	// SizeBytes is the serialized size of the whole collection.
	SizeBytes int `json:"size_bytes"`
}
