package store

import "errors"

var (
	// ErrEmbedding marks a failure of the embedding provider during
	// insert or query. Batch inserts are all-or-nothing: on this error
	// the previous collection is untouched.
	ErrEmbedding = errors.New("embedding provider failure")

	// ErrStoreUnavailable marks an unrecoverable storage state.
	ErrStoreUnavailable = errors.New("fragment store unavailable")
)
