// Package http implements the development stub registry's HTTP transport.
//
// The stub mimics the remote regulatory registry closely enough to exercise
// the full field-client sync path: submissions are deduplicated by id,
// manual backup copies are accepted, and an admin toggle switches the stub
// into simulated-offline mode where every probed route answers 503 with the
// offline body. Cross-cutting concerns (tracing, access logging, device
// token checks, payload integrity) live in middleware.
package http
