//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ynaka-dev/docqa/internal/document"
)

// setupQdrant creates a store against a local Qdrant with a unique
// collection per test. Skips when Qdrant is not running.
func setupQdrant(t *testing.T) *Qdrant {
	s, err := NewQdrant(textProvider{}, "localhost", 6334, "docqa-test-"+uuid.New().String())
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Clear(context.Background())
		s.Close()
	})
	return s
}

func TestQdrant_ReplaceQueryRoundTrip(t *testing.T) {
	s := setupQdrant(t)
	ctx := context.Background()
	chunks := testChunks()

	require.NoError(t, s.ReplaceAll(ctx, chunks))

	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(chunks), info.Count)

	results, err := s.Query(ctx, chunks[0].Text, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, chunks[0].Text, results[0].Text)
	assert.GreaterOrEqual(t, results[0].Score, 0.0)
	assert.LessOrEqual(t, results[0].Score, 1.0)
}

func TestQdrant_QueryWithoutCollection(t *testing.T) {
	s := setupQdrant(t)

	results, err := s.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	info, err := s.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, info.Count)
}

func TestQdrant_ClearIsIdempotent(t *testing.T) {
	s := setupQdrant(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAll(ctx, testChunks()))
	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))

	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Count)
}
