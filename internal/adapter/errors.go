package adapter

import "errors"

// Sentinel errors classifying registry call outcomes. The sync engine keys
// its retry decisions off these values via [IsRetryable].
var (
	// ErrRegistryUnavailable covers network errors, 5xx responses, and the
	// registry's explicit offline body. Retryable.
	ErrRegistryUnavailable = errors.New("registry unavailable")

	// ErrThrottled is returned on 429 responses. Retryable.
	ErrThrottled = errors.New("registry throttled request")

	// ErrUnauthorized is returned when the device token is rejected (401).
	// Not retryable: retrying with the same token cannot succeed.
	ErrUnauthorized = errors.New("device token rejected")

	// ErrRejected covers the remaining 4xx responses (malformed payload,
	// validation failure). Not retryable.
	ErrRejected = errors.New("registry rejected submission")
)

// IsRetryable reports whether err represents a transient delivery failure
// that the queue should retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRegistryUnavailable) || errors.Is(err, ErrThrottled)
}
