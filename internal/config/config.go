// Package config loads the application configuration from a YAML file,
// falling back to defaults when the file is absent.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// SegmenterConfig configures how extracted text is split into chunks.
type SegmenterConfig struct {
	MaxSize int `yaml:"max_size"`
	Overlap int `yaml:"overlap"`
}

// EmbedderConfig configures the OpenAI embedding provider.
type EmbedderConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// QdrantConfig contains connection details for the Qdrant store backend.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
}

// StoreConfig selects and configures the fragment store backend.
type StoreConfig struct {
	Type   string       `yaml:"type"` // "memory" or "qdrant"
	Qdrant QdrantConfig `yaml:"qdrant"`
}

// AnswerConfig configures grounded answer generation.
type AnswerConfig struct {
	Model string `yaml:"model"`
	TopK  int    `yaml:"top_k"`
}

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Segmenter SegmenterConfig `yaml:"segmenter"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Store     StoreConfig     `yaml:"store"`
	Answer    AnswerConfig    `yaml:"answer"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the config from path. A missing file yields defaults, not
// an error; a malformed file is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Segmenter.MaxSize == 0 {
		cfg.Segmenter.MaxSize = 500
	}
	if cfg.Segmenter.Overlap == 0 {
		cfg.Segmenter.Overlap = 50
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "memory"
	}
	if cfg.Store.Qdrant.Host == "" {
		cfg.Store.Qdrant.Host = "localhost"
	}
	if cfg.Store.Qdrant.Port == 0 {
		cfg.Store.Qdrant.Port = 6334
	}
	if cfg.Store.Qdrant.Collection == "" {
		cfg.Store.Qdrant.Collection = "knowledge_base"
	}
	if cfg.Answer.Model == "" {
		cfg.Answer.Model = "gpt-4o-mini"
	}
	if cfg.Answer.TopK == 0 {
		cfg.Answer.TopK = 5
	}
}
