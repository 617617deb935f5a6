// Package store holds the indexed fragments of the current session and
// answers nearest-neighbor queries over their embeddings.
package store

import (
	"context"

	"github.com/ynaka-dev/docqa/internal/document"
)

// Fragment is the persisted form of a chunk: its text and origin plus a
// fixed-dimension embedding and a store-assigned identifier. Fragments
// are created on bulk insert and destroyed only by a full replace or
// clear; there is no partial mutation.
type Fragment struct {
	ID        string
	Text      string
	Source    string
	Page      string
	Seq       int // insertion order, used to break equal-score ties
	Embedding []float32
}

// RetrievalResult is a query match with a normalized similarity score in
// [0,1], higher meaning more relevant. Results are ephemeral.
type RetrievalResult struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// Info reports the size of the current collection.
type Info struct {
	Count int `json:"count"`
}

// Store is the fragment store contract. Implementations keep at most one
// active collection; ReplaceAll swaps it wholesale.
type Store interface {
	// ReplaceAll embeds every chunk and replaces the collection with the
	// result. Embedding failure rejects the whole batch and leaves the
	// previous collection untouched.
	ReplaceAll(ctx context.Context, chunks []document.Chunk) error

	// Query embeds the query text and returns up to topK fragments by
	// descending similarity. An empty or missing collection yields an
	// empty result, not an error. Equal scores keep insertion order.
	Query(ctx context.Context, query string, topK int) ([]RetrievalResult, error)

	// Info returns the fragment count; zero when no collection exists.
	Info(ctx context.Context) (Info, error)

	// Clear deletes the collection entirely. Idempotent.
	Clear(ctx context.Context) error
}

// DefaultTopK is used when a query does not specify how many fragments
// to retrieve.
const DefaultTopK = 5
