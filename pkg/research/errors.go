package research

import "errors"

// Failure modes of a research request. Components wrap these with
// fmt.Errorf("...: %w", ...) so callers can classify with errors.Is.
// No component converts a failure into a degraded success; an error
// at any recursion depth aborts the whole request.
var (
	// ErrValidation marks a malformed or out-of-range request.
	ErrValidation = errors.New("invalid research request")

	// ErrSearch marks a failed call to the search capability.
	ErrSearch = errors.New("search capability failed")

	// ErrGeneration marks a failed or empty-where-required response
	// from the generation capability.
	ErrGeneration = errors.New("generation capability failed")

	// ErrPeerUnavailable marks an unreachable remote research peer.
	ErrPeerUnavailable = errors.New("research peer unavailable")
)
