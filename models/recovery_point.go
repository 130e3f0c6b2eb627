package models

import (
	"encoding/json"
	"time"
)

// RecoveryPoint is the portable export/import representation of a single
// backup record. Checksum is a SHA-256 hex digest over the raw payload bytes
// and must re-validate on import.
type RecoveryPoint struct {
	ID          string          `json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	Description string          `json:"description,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	Checksum    string          `json:"checksum"`
}
