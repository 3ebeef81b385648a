package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExtraction indicates a source could not be read (unreadable
	// file or unreachable URL). The document is marked failed with no
	// partial index state.
	ErrExtraction = errors.New("extraction failed")

	// ErrModelUnavailable indicates an embedding or generation backend
	// is down. The ingestor retries with bounded backoff; the provider
	// chain falls through to the next provider.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrContextOverflow indicates a provider rejected the prompt for
	// exceeding its window despite client-side fitting. The chain falls
	// through to the next provider; it never surfaces to the user.
	ErrContextOverflow = errors.New("context window exceeded")

	// ErrNoProvider indicates no generation provider is usable,
	// including the context-only fallback. This is a fatal
	// configuration error detected at startup.
	ErrNoProvider = errors.New("no generation provider configured")
)
