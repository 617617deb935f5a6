package extract

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ynaka-dev/docqa/internal/document"
	"github.com/ynaka-dev/docqa/internal/segment"
)

// Markdown parses a markdown document and segments its plain text
// content into chunks labelled with the given source name. Markup is
// dropped; heading and paragraph boundaries become line breaks so the
// segmenter treats them as sentence boundaries.
func Markdown(source []byte, name string, seg *segment.Segmenter) ([]document.Chunk, error) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))

	var buf strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				buf.Write(node.Segment.Value(source))
				if node.SoftLineBreak() || node.HardLineBreak() {
					buf.WriteByte('\n')
				}
			}
		case *ast.FencedCodeBlock:
			if entering {
				writeCodeLines(&buf, source, node)
			}
		case *ast.CodeBlock:
			if entering {
				writeCodeLines(&buf, source, node)
			}
		default:
			if !entering && n.Type() == ast.TypeBlock {
				buf.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})

	var chunks []document.Chunk
	for _, unit := range seg.Split(CleanText(buf.String())) {
		chunks = append(chunks, document.Chunk{
			Text:   unit,
			Source: name,
		})
	}
	return chunks, nil
}

// linedBlock is satisfied by goldmark block nodes that carry raw source
// line segments.
type linedBlock interface {
	Lines() *text.Segments
}

func writeCodeLines(buf *strings.Builder, source []byte, node linedBlock) {
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
}
