package models

import (
	"encoding/json"
	"time"
)

// SubmitRequest is the body sent to the registry for one queued item.
type SubmitRequest struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	// Hash is the HMAC-SHA256 transport signature over Payload.
	Hash string `json:"hash,omitempty"`
}

// SubmitResponse is the registry's acknowledgement. Duplicate is set when the
// registry had already accepted an item with the same ID (at-least-once
// delivery makes resubmission legal).
type SubmitResponse struct {
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// OfflineResponse is the body every data route answers with while the
// registry (or its stub) is unreachable or in simulated-offline mode.
type OfflineResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Offline bool   `json:"offline"`
}
