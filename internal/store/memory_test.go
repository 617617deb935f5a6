package store

import (
	"context"
	"errors"
	"hash/fnv"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ynaka-dev/docqa/internal/document"
)

// textProvider returns a deterministic pseudo-random vector per distinct
// text: identical texts embed identically, different texts are nearly
// orthogonal.
type textProvider struct{}

func (textProvider) Dimension() int { return 16 }

func (p textProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	r := rand.New(rand.NewSource(int64(h.Sum64())))

	v := make([]float32, p.Dimension())
	for i := range v {
		v[i] = float32(r.Float64()*2 - 1)
	}
	return v, nil
}

func (p textProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := p.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// constProvider embeds every text to the same vector, forcing equal
// scores for tie-break tests.
type constProvider struct{}

func (constProvider) Dimension() int { return 4 }

func (constProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 1, 1, 1}, nil
}

func (p constProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i], _ = p.Embed(ctx, texts[i])
	}
	return vectors, nil
}

// flakyProvider wraps textProvider and fails on demand.
type flakyProvider struct {
	fail bool
	textProvider
}

func (p *flakyProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.fail {
		return nil, errors.New("simulated provider outage")
	}
	return p.textProvider.Embed(ctx, text)
}

func (p *flakyProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if p.fail {
		return nil, errors.New("simulated provider outage")
	}
	return p.textProvider.EmbedBatch(ctx, texts)
}

func testChunks() []document.Chunk {
	return []document.Chunk{
		{Text: "The red fox jumps over the fence.", Source: "animals.pdf - page 1", Page: "1"},
		{Text: "Photosynthesis converts light into chemical energy.", Source: "biology.pdf - page 4", Page: "4"},
		{Text: "The stock market closed higher on Friday.", Source: "https://example.com/news"},
	}
}

func TestMemory_ReplaceAllAndInfo(t *testing.T) {
	s := NewMemory(textProvider{})
	ctx := context.Background()

	require.NoError(t, s.ReplaceAll(ctx, testChunks()))

	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Count)

	// A second batch replaces, never merges.
	require.NoError(t, s.ReplaceAll(ctx, testChunks()[:2]))
	info, err = s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Count)
}

func TestMemory_QueryRoundTrip(t *testing.T) {
	s := NewMemory(textProvider{})
	ctx := context.Background()
	chunks := testChunks()

	require.NoError(t, s.ReplaceAll(ctx, chunks))

	results, err := s.Query(ctx, chunks[0].Text, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, chunks[0].Text, results[0].Text)
	assert.Equal(t, chunks[0].Source, results[0].Source)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score, "results must be ordered by descending score")
	}
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestMemory_QueryEmptyStore(t *testing.T) {
	s := NewMemory(textProvider{})

	results, err := s.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemory_ReplaceDiscardsPreviousSet(t *testing.T) {
	s := NewMemory(textProvider{})
	ctx := context.Background()

	first := []document.Chunk{{Text: "alpha fragment only in the first set", Source: "a.txt"}}
	second := []document.Chunk{
		{Text: "beta fragment from the second set", Source: "b.txt"},
		{Text: "gamma fragment from the second set", Source: "b.txt"},
	}

	require.NoError(t, s.ReplaceAll(ctx, first))
	require.NoError(t, s.ReplaceAll(ctx, second))

	results, err := s.Query(ctx, first[0].Text, 5)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, first[0].Text, r.Text, "fragments from the replaced set must not surface")
	}
}

func TestMemory_ClearIsIdempotent(t *testing.T) {
	s := NewMemory(textProvider{})
	ctx := context.Background()

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.ReplaceAll(ctx, testChunks()))
	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))

	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Count)

	results, err := s.Query(ctx, "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemory_EmbeddingFailureKeepsPreviousCollection(t *testing.T) {
	provider := &flakyProvider{}
	s := NewMemory(provider)
	ctx := context.Background()
	chunks := testChunks()

	require.NoError(t, s.ReplaceAll(ctx, chunks))

	provider.fail = true
	err := s.ReplaceAll(ctx, []document.Chunk{{Text: "replacement", Source: "x"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbedding)

	provider.fail = false
	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(chunks), info.Count, "failed batch must not disturb the previous collection")

	results, err := s.Query(ctx, chunks[0].Text, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, chunks[0].Text, results[0].Text)
}

func TestMemory_QueryEmbeddingFailure(t *testing.T) {
	provider := &flakyProvider{}
	s := NewMemory(provider)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAll(ctx, testChunks()))

	provider.fail = true
	_, err := s.Query(ctx, "anything", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbedding)
}

func TestMemory_EqualScoresKeepInsertionOrder(t *testing.T) {
	s := NewMemory(constProvider{})
	ctx := context.Background()
	chunks := testChunks()

	require.NoError(t, s.ReplaceAll(ctx, chunks))

	results, err := s.Query(ctx, "tie", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, chunks[i].Text, r.Text, "equal scores must preserve insertion order")
	}
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Equal(t, results[1].Score, results[2].Score)
}

func TestMemory_TopKLimitsResults(t *testing.T) {
	s := NewMemory(textProvider{})
	ctx := context.Background()

	require.NoError(t, s.ReplaceAll(ctx, testChunks()))

	results, err := s.Query(ctx, "fox", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// Non-positive topK falls back to the default.
	results, err = s.Query(ctx, "fox", 0)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}
