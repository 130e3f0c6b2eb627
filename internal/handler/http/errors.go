package http

import "errors"

// Sentinel errors used when parsing the "Authorization" header. Callers can
// match against them with [errors.Is].
var (
	// ErrEmptyAuthorizationHeader is returned when the incoming request
	// carries no "Authorization" header at all.
	ErrEmptyAuthorizationHeader = errors.New("empty `Authorization` header")

	// ErrInvalidAuthorizationHeader is returned when the header cannot be
	// split into a scheme and a token value.
	ErrInvalidAuthorizationHeader = errors.New("invalid `Authorization` header")

	// ErrEmptyToken is returned when the scheme prefix is present but the
	// token value itself is empty.
	ErrEmptyToken = errors.New("empty token in `Authorization` header")
)
