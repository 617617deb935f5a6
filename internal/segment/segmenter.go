// Package segment splits raw extracted text into overlapping,
// sentence-aware chunks suitable for embedding and retrieval.
package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultMaxSize is the maximum chunk length in runes.
	DefaultMaxSize = 500

	// DefaultOverlap is the number of trailing runes carried from a closed
	// chunk into the next one to preserve continuity across boundaries.
	DefaultOverlap = 50
)

// Segmenter accumulates sentence units into chunks of at most maxSize
// runes, starting each new chunk with the trailing overlap runes of the
// previous one. A Segmenter is pure and safe for concurrent use.
type Segmenter struct {
	maxSize int
	overlap int
}

// New creates a Segmenter. Non-positive maxSize falls back to
// DefaultMaxSize; overlap is clamped into [0, maxSize).
func New(maxSize, overlap int) *Segmenter {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxSize {
		overlap = maxSize - 1
	}
	return &Segmenter{maxSize: maxSize, overlap: overlap}
}

// Split segments text into chunks. Empty or whitespace-only input yields
// no chunks. Sentences are never split mid-unit: a single sentence longer
// than maxSize is placed alone in an oversize chunk.
func (s *Segmenter) Split(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0

	for _, sentence := range sentences {
		sentenceLen := utf8.RuneCountInString(sentence)

		// Close the running chunk when the next unit would overflow it.
		if len(current) > 0 && currentLen+1+sentenceLen > s.maxSize {
			closed := strings.Join(current, " ")
			chunks = append(chunks, closed)
			current = current[:0]
			currentLen = 0

			if s.overlap > 0 {
				runes := []rune(closed)
				if len(runes) >= s.overlap {
					tail := string(runes[len(runes)-s.overlap:])
					current = append(current, tail)
					currentLen = s.overlap
				}
			}
		}

		if len(current) > 0 {
			currentLen++ // joining space
		}
		current = append(current, sentence)
		currentLen += sentenceLen
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}

// splitSentences cuts text into sentence-like units. A unit ends after a
// clause-terminating punctuation mark or an explicit line break; terminal
// punctuation stays attached to its unit. ASCII terminators only count
// when followed by whitespace or end of input, so "3.14" stays whole.
func splitSentences(text string) []string {
	var units []string
	var buf strings.Builder

	flush := func() {
		unit := strings.TrimSpace(buf.String())
		if unit != "" {
			units = append(units, unit)
		}
		buf.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' {
			flush()
			continue
		}
		buf.WriteRune(r)
		switch r {
		case '。', '．', '！', '？':
			flush()
		case '.', '!', '?':
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
			}
		}
	}
	flush()

	return units
}
