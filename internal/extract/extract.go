// Package extract turns document sources (PDF, web pages, markdown,
// plain text) into segmented chunks ready for indexing. The retrieval
// core itself never parses source formats; it consumes the chunks
// produced here.
package extract

import (
	"regexp"
	"strings"

	"github.com/ynaka-dev/docqa/internal/document"
	"github.com/ynaka-dev/docqa/internal/segment"
)

var (
	spaceRun    = regexp.MustCompile(`[ \t]+`)
	spacedBreak = regexp.MustCompile(`[ \t]*\n[ \t]*`)
	breakRun    = regexp.MustCompile(`\n{2,}`)
)

// CleanText collapses runs of whitespace: horizontal whitespace to a
// single space, consecutive line breaks to a single one, and trims the
// ends.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = spaceRun.ReplaceAllString(s, " ")
	s = spacedBreak.ReplaceAllString(s, "\n")
	s = breakRun.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// Text segments already-plain text into chunks labelled with the given
// source name.
func Text(raw, source string, seg *segment.Segmenter) []document.Chunk {
	var chunks []document.Chunk
	for _, unit := range seg.Split(CleanText(raw)) {
		chunks = append(chunks, document.Chunk{
			Text:   unit,
			Source: source,
		})
	}
	return chunks
}
