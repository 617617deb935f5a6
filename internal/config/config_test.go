package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 500, cfg.Segmenter.MaxSize)
	assert.Equal(t, 50, cfg.Segmenter.Overlap)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, "knowledge_base", cfg.Store.Qdrant.Collection)
	assert.Equal(t, 5, cfg.Answer.TopK)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  addr: ":9090"
segmenter:
  max_size: 200
store:
  type: qdrant
  qdrant:
    host: qdrant.internal
answer:
  model: gpt-4o
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 200, cfg.Segmenter.MaxSize)
	assert.Equal(t, 50, cfg.Segmenter.Overlap, "unset fields keep defaults")
	assert.Equal(t, "qdrant", cfg.Store.Type)
	assert.Equal(t, "qdrant.internal", cfg.Store.Qdrant.Host)
	assert.Equal(t, 6334, cfg.Store.Qdrant.Port)
	assert.Equal(t, "gpt-4o", cfg.Answer.Model)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
