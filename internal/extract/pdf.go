package extract

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ynaka-dev/docqa/internal/document"
	"github.com/ynaka-dev/docqa/internal/segment"
)

// PDF extracts per-page text from a PDF and segments it into chunks.
// Blank pages are skipped. Each chunk's source is "name - page N" and
// its Page field carries the page number.
func PDF(r io.ReaderAt, size int64, name string, seg *segment.Segmenter) ([]document.Chunk, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", name, err)
	}

	var chunks []document.Chunk
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read pdf %s page %d: %w", name, pageNum, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		for _, unit := range seg.Split(text) {
			chunks = append(chunks, document.Chunk{
				Text:   unit,
				Source: fmt.Sprintf("%s - page %d", name, pageNum),
				Page:   strconv.Itoa(pageNum),
			})
		}
	}

	return chunks, nil
}
