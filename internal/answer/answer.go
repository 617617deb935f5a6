// Package answer generates grounded answers: it builds retrieval context
// for a question and asks a chat model to answer from that context only.
package answer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ynaka-dev/docqa/internal/retrieval"
	"github.com/ynaka-dev/docqa/internal/store"
)

// Generator produces text from a prompt. The generative model is an
// external capability; tests inject fakes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result is a generated answer with the fragments that grounded it.
type Result struct {
	Answer  string                  `json:"answer"`
	Sources []store.RetrievalResult `json:"sources"`
}

// Service answers questions against the indexed knowledge base.
type Service struct {
	builder   *retrieval.Builder
	generator Generator
	logger    *slog.Logger
}

// NewService creates an answer service. A nil logger falls back to
// slog.Default().
func NewService(builder *retrieval.Builder, generator Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		builder:   builder,
		generator: generator,
		logger:    logger,
	}
}

const promptTemplate = `You are a careful knowledge-base assistant. Answer the user's question using only the reference material below.

Rules:
- If the material does not contain the answer, say that the provided material does not cover it.
- Do not guess or invent facts.
- Keep the answer concise and explain technical terms briefly when needed.

Reference material:
%s

Question:
%s

Answer:`

// Answer retrieves the topK most relevant fragments and generates an
// answer grounded in them. Sources in the result identify what the
// answer was grounded on, in score order.
func (s *Service) Answer(ctx context.Context, query string, topK int) (*Result, error) {
	rc, err := s.builder.BuildContext(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("build context: %w", err)
	}
	s.logger.Debug("Built retrieval context", "query", query, "sources", len(rc.Sources))

	prompt := fmt.Sprintf(promptTemplate, rc.Text, query)

	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &Result{
		Answer:  text,
		Sources: rc.Sources,
	}, nil
}
