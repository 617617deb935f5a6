// Package embedding provides the text-to-vector capability used by the
// fragment store. The store never does embedding math itself; it calls a
// Provider.
package embedding

import "context"

// Provider maps text to fixed-length embedding vectors.
type Provider interface {
	// Embed returns the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one embedding per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension is the fixed length of every vector this provider returns.
	Dimension() int
}
