package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ynaka-dev/docqa/internal/document"
	"github.com/ynaka-dev/docqa/internal/segment"
)

// userAgent avoids the blanket blocks some sites apply to default Go
// HTTP clients.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

var webClient = &http.Client{Timeout: 10 * time.Second}

// Web fetches a page and extracts its readable text: page chrome
// (scripts, styles, navigation, footers) is stripped and the main
// content element is preferred over the full body. The URL itself is
// the source label.
func Web(ctx context.Context, rawURL string, seg *segment.Segmenter) ([]document.Chunk, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := webClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", rawURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}

	text := readableText(doc)

	var chunks []document.Chunk
	for _, unit := range seg.Split(text) {
		chunks = append(chunks, document.Chunk{
			Text:   unit,
			Source: rawURL,
		})
	}
	return chunks, nil
}

// readableText strips non-content elements and extracts text from the
// most specific main-content element available: article > main > body.
func readableText(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, header, aside").Remove()

	for _, selector := range []string{"article", "main", "body"} {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return CleanText(sel.Text())
		}
	}
	return CleanText(doc.Text())
}
