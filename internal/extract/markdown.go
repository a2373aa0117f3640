package extract

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// collapseBeforeNewline trims trailing whitespace runs in front of newlines,
// which also folds the blank lines left behind by stripped block markup.
var collapseBeforeNewline = regexp.MustCompile(`\s+\n`)

// extractMarkdown decodes content as markdown and converts it to plain text.
func extractMarkdown(content []byte) (*Result, error) {
	return &Result{
		Text:   MarkdownToText(content),
		Meta:   map[string]any{"source": "markdown"},
		Source: "markdown",
	}, nil
}

// MarkdownToText converts markdown source to plain text: headings, list
// markers, and emphasis are stripped, link text is kept, and link targets are
// dropped. The source is parsed to a markup tree; if that yields no text for
// non-blank input, a regex-based stripper is used so conversion degrades
// gracefully instead of failing outright.
func MarkdownToText(source []byte) string {
	source = []byte(strings.ReplaceAll(decodeUTF8(source), "\r\n", "\n"))
	text := renderPlain(source)
	if text == "" && strings.TrimSpace(string(source)) != "" {
		return stripMarkdown(string(source))
	}
	return text
}

// renderPlain walks the markdown AST collecting text content, with one line
// break between blocks.
func renderPlain(source []byte) string {
	doc := markdown.Parser().Parse(gmtext.NewReader(source))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				b.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.AutoLink:
			// Bare link: target only, nothing to keep.
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			writeCodeLines(&b, source, node)
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			writeCodeLines(&b, source, node)
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(collapseBeforeNewline.ReplaceAllString(b.String(), "\n"))
}

func writeCodeLines(b *strings.Builder, source []byte, node ast.Node) {
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
}

var (
	fencedCode = regexp.MustCompile("(?s)```.*?```")
	inlineCode = regexp.MustCompile("`([^`]+)`")
	mdLink     = regexp.MustCompile(`\[(.*?)\]\(.*?\)`)
	mdMarkup   = regexp.MustCompile(`[#>*_~-]+`)
	multiSpace = regexp.MustCompile(`\s{2,}`)
)

// stripMarkdown is the degraded fallback converter: markup is removed with
// regular expressions, keeping link and inline-code text.
func stripMarkdown(source string) string {
	s := fencedCode.ReplaceAllString(source, "")
	s = inlineCode.ReplaceAllString(s, "$1")
	s = mdLink.ReplaceAllString(s, "$1")
	s = mdMarkup.ReplaceAllString(s, "")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
