package core

import "errors"

// Error taxonomy surfaced at the request boundary. Wrap with
// fmt.Errorf("...: %w", ...) and test with errors.Is.
var (
	// ErrSessionNotFound means no session exists for a content key. This is
	// a normal outcome on first sight of a URL, not a failure.
	ErrSessionNotFound = errors.New("session not found")

	// ErrStorageFailure covers session store read/write errors.
	ErrStorageFailure = errors.New("storage failure")

	// ErrUpstreamUnavailable covers download, transcription and generation
	// service failures.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")

	// ErrMalformedUpstreamResponse means an upstream answered but its
	// payload does not match the expected shape.
	ErrMalformedUpstreamResponse = errors.New("malformed upstream response")

	// ErrMalformedSegment means a raw transcription segment is missing its
	// start, end or text field.
	ErrMalformedSegment = errors.New("malformed transcript segment")
)
