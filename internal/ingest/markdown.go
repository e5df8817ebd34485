package ingest

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor converts markdown content into plain text pages suitable
// for chunking. Markdown sources carry no page structure, so the result is a
// single page without a page number.
type MarkdownExtractor struct {
	parser goldmark.Markdown
}

// NewMarkdownExtractor creates a new markdown extractor.
func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// ExtractPages parses markdown content and returns its plain text as pages.
// Headings are kept on their own lines so the section heuristic can pick them
// up. Empty content yields no pages.
func (e *MarkdownExtractor) ExtractPages(content []byte) []Page {
	if len(content) == 0 {
		return nil
	}

	reader := text.NewReader(content)
	doc := e.parser.Parser().Parse(reader)

	var b strings.Builder

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			ensureBlankLine(&b)
			b.WriteString(extractNodeText(node, content))
			b.WriteString("\n")
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.List:
			ensureBlankLine(&b)
			return ast.WalkContinue, nil

		case *ast.ListItem:
			ensureNewline(&b)
			return ast.WalkContinue, nil

		case *ast.Text:
			b.Write(node.Segment.Value(content))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteString("\n")
			}
			return ast.WalkContinue, nil

		case *ast.String:
			b.Write(node.Value)
			return ast.WalkContinue, nil

		case *ast.CodeBlock:
			ensureBlankLine(&b)
			writeLines(&b, node.Lines(), content)
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock:
			ensureBlankLine(&b)
			writeLines(&b, node.Lines(), content)
			return ast.WalkSkipChildren, nil

		case *extast.TableRow, *extast.TableHeader:
			ensureNewline(&b)
			b.WriteString(extractTableRowText(n, content))
			b.WriteString("\n")
			return ast.WalkSkipChildren, nil

		default:
			return ast.WalkContinue, nil
		}
	})

	extracted := strings.TrimSpace(b.String())
	if extracted == "" {
		return nil
	}
	return []Page{{Text: extracted}}
}

// ensureBlankLine terminates the current paragraph with a blank line.
func ensureBlankLine(b *strings.Builder) {
	s := b.String()
	if s == "" || strings.HasSuffix(s, "\n\n") {
		return
	}
	if strings.HasSuffix(s, "\n") {
		b.WriteString("\n")
		return
	}
	b.WriteString("\n\n")
}

// ensureNewline makes sure the builder ends with a newline.
func ensureNewline(b *strings.Builder) {
	s := b.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		b.WriteString("\n")
	}
}

// writeLines appends raw source line segments.
func writeLines(b *strings.Builder, lines *text.Segments, content []byte) {
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(content))
	}
}

// extractNodeText extracts text content from a node and its children.
func extractNodeText(n ast.Node, content []byte) string {
	var textBuilder strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := node.(type) {
		case *ast.Text:
			textBuilder.Write(v.Segment.Value(content))
		case *ast.String:
			textBuilder.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(textBuilder.String())
}

// extractTableRowText extracts text from a table row, formatting cells with
// pipe separators.
func extractTableRowText(row ast.Node, content []byte) string {
	var rowBuilder strings.Builder
	cellCount := 0

	_ = ast.Walk(row, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if _, ok := node.(*extast.TableCell); ok {
			cellText := extractNodeText(node, content)
			if cellCount > 0 {
				rowBuilder.WriteString(" | ")
			}
			rowBuilder.WriteString(cellText)
			cellCount++
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return rowBuilder.String()
}
