package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrLLMUnavailable means no model can be reached: nothing configured,
	// a rejected key, an unknown model, or no server listening.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrRateLimited is an upstream 429 or quota answer. Worth retrying.
	ErrRateLimited = errors.New("rate limited")
)

// Run errors. Each one ends a digest run without storing anything.
var (
	// ErrRetrievalFailure is returned only when every query failed; single
	// failed queries become warnings.
	ErrRetrievalFailure = errors.New("retrieval failure")

	// ErrDelegationTimeout means no attempt answered within its timeout.
	ErrDelegationTimeout = errors.New("delegation timeout")

	// ErrDelegationFailure means every attempt errored.
	ErrDelegationFailure = errors.New("delegation failure")

	ErrEmptyResponse     = errors.New("empty response")
	ErrMalformedResponse = errors.New("malformed response")

	// ErrSchemaViolation covers answers that parse but cannot be repaired,
	// and digests that break their own invariants.
	ErrSchemaViolation = errors.New("schema violation")
)

// ErrDuplicateWeek is a store conflict under the reject policy.
var ErrDuplicateWeek = errors.New("digest already exists for week")
