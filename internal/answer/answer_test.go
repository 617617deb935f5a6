package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ynaka-dev/docqa/internal/document"
	"github.com/ynaka-dev/docqa/internal/retrieval"
	"github.com/ynaka-dev/docqa/internal/store"
)

type stubStore struct {
	results []store.RetrievalResult
}

func (s *stubStore) ReplaceAll(ctx context.Context, chunks []document.Chunk) error { return nil }

func (s *stubStore) Query(ctx context.Context, query string, topK int) ([]store.RetrievalResult, error) {
	return s.results, nil
}

func (s *stubStore) Info(ctx context.Context) (store.Info, error) {
	return store.Info{Count: len(s.results)}, nil
}

func (s *stubStore) Clear(ctx context.Context) error { return nil }

type stubGenerator struct {
	answer string
	err    error
	prompt string // captured
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.answer, g.err
}

func TestAnswer_GroundsPromptInRetrievedFragments(t *testing.T) {
	st := &stubStore{results: []store.RetrievalResult{
		{Text: "Gophers dig burrows.", Source: "wildlife.pdf - page 2", Score: 0.88},
	}}
	gen := &stubGenerator{answer: "They dig burrows."}
	svc := NewService(retrieval.NewBuilder(st), gen, nil)

	result, err := svc.Answer(context.Background(), "What do gophers do?", 3)
	require.NoError(t, err)

	assert.Equal(t, "They dig burrows.", result.Answer)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "wildlife.pdf - page 2", result.Sources[0].Source)

	assert.Contains(t, gen.prompt, "Gophers dig burrows.")
	assert.Contains(t, gen.prompt, "What do gophers do?")
}

func TestAnswer_EmptyStoreUsesNoMatchNotice(t *testing.T) {
	gen := &stubGenerator{answer: "The provided material does not cover this."}
	svc := NewService(retrieval.NewBuilder(&stubStore{}), gen, nil)

	result, err := svc.Answer(context.Background(), "Anything?", 5)
	require.NoError(t, err)

	assert.Empty(t, result.Sources)
	assert.Contains(t, gen.prompt, retrieval.NoMatchNotice)
}

func TestAnswer_GeneratorErrorPropagates(t *testing.T) {
	genErr := errors.New("model unavailable")
	svc := NewService(retrieval.NewBuilder(&stubStore{}), &stubGenerator{err: genErr}, nil)

	_, err := svc.Answer(context.Background(), "Anything?", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, genErr)
}
