package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ynaka-dev/docqa/internal/document"
	"github.com/ynaka-dev/docqa/internal/embedding"
)

// Memory is an in-process fragment store using brute-force cosine
// similarity. It matches the single-session model: nothing survives the
// process. Safe for concurrent use.
type Memory struct {
	provider embedding.Provider

	mu        sync.RWMutex
	fragments []Fragment
}

// NewMemory creates an empty in-memory store backed by the given
// embedding provider.
func NewMemory(provider embedding.Provider) *Memory {
	return &Memory{provider: provider}
}

// ReplaceAll implements Store. Embeddings for the whole batch are
// computed before the swap, so a provider failure leaves the previous
// collection intact.
func (s *Memory) ReplaceAll(ctx context.Context, chunks []document.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	var vectors [][]float32
	if len(texts) > 0 {
		var err error
		vectors, err = s.provider.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEmbedding, err)
		}
		if len(vectors) != len(chunks) {
			return fmt.Errorf("%w: expected %d vectors, got %d", ErrEmbedding, len(chunks), len(vectors))
		}
	}

	fragments := make([]Fragment, len(chunks))
	for i, c := range chunks {
		fragments[i] = Fragment{
			ID:        uuid.New().String(),
			Text:      c.Text,
			Source:    c.Source,
			Page:      c.Page,
			Seq:       i,
			Embedding: vectors[i],
		}
	}

	s.mu.Lock()
	s.fragments = fragments
	s.mu.Unlock()

	return nil
}

// Query implements Store.
func (s *Memory) Query(ctx context.Context, query string, topK int) ([]RetrievalResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	s.mu.RLock()
	fragments := s.fragments
	s.mu.RUnlock()

	if len(fragments) == 0 {
		return []RetrievalResult{}, nil
	}

	vector, err := s.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	results := make([]RetrievalResult, len(fragments))
	for i, f := range fragments {
		results[i] = RetrievalResult{
			Text:   f.Text,
			Source: f.Source,
			Score:  normalizeCosine(cosine(vector, f.Embedding)),
		}
	}

	// Stable sort over insertion order: equal scores stay first-inserted
	// first.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

// Info implements Store.
func (s *Memory) Info(ctx context.Context) (Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Info{Count: len(s.fragments)}, nil
}

// Clear implements Store.
func (s *Memory) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.fragments = nil
	s.mu.Unlock()
	return nil
}

// cosine computes the cosine similarity of two vectors. Mismatched or
// zero vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// normalizeCosine maps cosine similarity from [-1,1] onto the [0,1]
// score scale, clamping against float drift.
func normalizeCosine(c float64) float64 {
	score := (c + 1) / 2
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
