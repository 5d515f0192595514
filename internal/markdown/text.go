package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// WordsPerMinute is the reading speed used by ReadingTime.
const WordsPerMinute = 213

var summaryDivider = regexp.MustCompile(`(?i)<!--\s*more\s*-->`)

// plain parses with GFM so tables and strikethrough contribute their text.
var plain = goldmark.New(goldmark.WithExtensions(extension.GFM))

// PlainText strips Markdown syntax and raw HTML from source, keeping the
// text of paragraphs, headings, list items and code blocks. Blocks are
// separated by newlines.
func PlainText(source []byte) string {
	doc := plain.Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && buf.Len() > 0 && !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
				buf.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			buf.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.Label(source))
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				segment := lines.At(i)
				buf.Write(segment.Value(source))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

// SplitSummary returns the Markdown before a <!--more--> divider. The
// boolean is false when the body has no divider.
func SplitSummary(body []byte) ([]byte, bool) {
	loc := summaryDivider.FindIndex(body)
	if loc == nil {
		return nil, false
	}
	return body[:loc[0]], true
}

// Summarize returns a plain-text summary of body. Text before a <!--more-->
// divider is used verbatim; otherwise the first words of the body are taken.
// truncated reports whether the summary is shorter than the body.
func Summarize(body []byte, words int) (summary string, truncated bool) {
	if manual, ok := SplitSummary(body); ok {
		return collapse(PlainText(manual)), true
	}
	fields := strings.Fields(PlainText(body))
	if words <= 0 || len(fields) <= words {
		return strings.Join(fields, " "), false
	}
	return strings.Join(fields[:words], " ") + "…", true
}

// WordCount counts whitespace separated words in the plain text of body.
func WordCount(body []byte) int {
	return len(strings.Fields(PlainText(body)))
}

// ReadingTime returns the estimated reading time in minutes, at least one.
func ReadingTime(body []byte) int {
	minutes := (WordCount(body) + WordsPerMinute - 1) / WordsPerMinute
	return max(minutes, 1)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
