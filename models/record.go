package models

import (
	"encoding/json"
	"time"
)

// FieldRecord is a single captured measurement batch (e.g. a timber-volume
// entry). Synced is monotonic: once a record has been accepted by the
// registry it never flips back — a later correction is a new record.
type FieldRecord struct {
	ID         string          `json:"id"`
	Payload    json.RawMessage `json:"payload"`
	CapturedAt time.Time       `json:"captured_at"`
	Synced     bool            `json:"synced"`
}
