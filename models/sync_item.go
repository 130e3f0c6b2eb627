package models

import (
	"encoding/json"
	"time"
)

// Priority orders pending sync items within a drain cycle. The registry is an
// audit system, so delivery order within a severity class must follow capture
// order.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

var priorityRank = map[Priority]int{
	PriorityCritical: 4,
	PriorityHigh:     3,
	PriorityMedium:   2,
	PriorityLow:      1,
}

// Rank returns the numeric ordering weight of p. Unknown priorities rank
// below PriorityLow so malformed persisted items never jump the queue.
func (p Priority) Rank() int {
	return priorityRank[p]
}

// Valid reports whether p is one of the four known priority classes.
func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// SyncStatus is the delivery state of a queued item.
type SyncStatus string

const (
	SyncStatusPending     SyncStatus = "pending"
	SyncStatusSyncing     SyncStatus = "syncing"
	SyncStatusSuccess     SyncStatus = "success"
	SyncStatusFailed      SyncStatus = "failed"
	SyncStatusFailedFinal SyncStatus = "failed-final"
)

// SyncItem is one pending outbound record awaiting delivery to the registry.
//
// Invariants: ID is unique within the queue (re-enqueueing the same ID
// replaces the entry wholesale), RetryCount only grows, Priority never changes
// after creation.
type SyncItem struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	RetryCount int             `json:"retry_count"`
	Priority   Priority        `json:"priority"`
	Status     SyncStatus      `json:"status"`
	LastError  string          `json:"last_error,omitempty"`
}
