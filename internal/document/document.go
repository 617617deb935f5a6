// Package document defines the chunk records shared between extraction,
// segmentation and the fragment store.
package document

import "sort"

// Chunk is a bounded segment of source text produced by the segmenter.
// Source identifies the origin (filename + page, or URL) and is used for
// display and deduplication; multiple chunks may share a source.
type Chunk struct {
	Text   string // non-empty after trimming
	Source string
	Page   string // optional page number, empty for non-paged sources
}

// Summary is an aggregate view over a chunk batch. It is derived, never
// stored: recompute it from the chunk list whenever it is needed.
type Summary struct {
	TotalChunks int      `json:"total_chunks"`
	TotalChars  int      `json:"total_chars"`
	Sources     []string `json:"sources"`
}

// Summarize computes the summary for a batch of chunks. Sources are
// deduplicated and sorted for stable output.
func Summarize(chunks []Chunk) Summary {
	seen := make(map[string]struct{})
	totalChars := 0
	for _, c := range chunks {
		totalChars += len([]rune(c.Text))
		if c.Source != "" {
			seen[c.Source] = struct{}{}
		}
	}

	sources := make([]string, 0, len(seen))
	for s := range seen {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	return Summary{
		TotalChunks: len(chunks),
		TotalChars:  totalChars,
		Sources:     sources,
	}
}
