// Package retrieval assembles grounding context for the answer
// generation call from fragment store query results.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/ynaka-dev/docqa/internal/store"
)

// NoMatchNotice is returned as the context text when the store has no
// relevant material, so the downstream generation call can say so
// instead of guessing.
const NoMatchNotice = "No relevant material was found in the knowledge base. " +
	"State that the provided material does not cover the question instead of answering from general knowledge."

// Context is the grounding bundle for one query: the labelled context
// block plus the retrieval results for attribution, in score order.
type Context struct {
	Text    string
	Sources []store.RetrievalResult
}

// Builder turns queries into grounding context. It does not call the
// generative model; that is the caller's responsibility.
type Builder struct {
	store store.Store
}

// NewBuilder creates a Builder over the given fragment store.
func NewBuilder(st store.Store) *Builder {
	return &Builder{store: st}
}

// BuildContext queries the store for the topK most relevant fragments
// and concatenates them into a single labelled block, preserving score
// order. Sources carries the results unchanged for UI attribution.
func (b *Builder) BuildContext(ctx context.Context, query string, topK int) (*Context, error) {
	results, err := b.store.Query(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("query fragments: %w", err)
	}

	if len(results) == 0 {
		return &Context{
			Text:    NoMatchNotice,
			Sources: []store.RetrievalResult{},
		}, nil
	}

	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("--- Source %d ---\n%s", i+1, r.Text)
	}

	return &Context{
		Text:    strings.Join(blocks, "\n\n"),
		Sources: results,
	}, nil
}
