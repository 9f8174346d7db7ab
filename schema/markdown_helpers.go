package schema

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// codeSpanText collects the literal content of a code span, the way
// bureau-foundation-bureau/lib/ticketui/markdown.go's renderCodeSpan
// gathers text from a CodeSpan's Text/String children.
func codeSpanText(source []byte, n ast.Node) string {
	var sb strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch v := child.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(source))
		case *ast.String:
			sb.Write(v.Value)
		}
	}
	return sb.String()
}

// inlineText renders a run of inline nodes (starting at n and continuing
// through its following siblings) back to plain text: code spans
// contribute their literal content, text nodes contribute their segment
// value with soft line breaks collapsed to spaces.
func inlineText(n ast.Node) func(source []byte) string {
	return func(source []byte) string {
		var sb strings.Builder
		for cur := n; cur != nil; cur = cur.NextSibling() {
			writeInline(&sb, source, cur)
		}
		return sb.String()
	}
}

func writeInline(sb *strings.Builder, source []byte, n ast.Node) {
	switch v := n.(type) {
	case *ast.Text:
		sb.Write(v.Segment.Value(source))
		if v.SoftLineBreak() || v.HardLineBreak() {
			sb.WriteByte(' ')
		}
	case *ast.String:
		sb.Write(v.Value)
	case *ast.CodeSpan:
		sb.WriteString(codeSpanText(source, v))
	default:
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			writeInline(sb, source, child)
		}
	}
}

// rawBlockText returns the literal source text of a leaf block (Paragraph,
// TextBlock, CodeBlock, ...), preserving documentation text verbatim
// rather than re-rendering it from the parsed AST.
func rawBlockText(source []byte, n ast.Node) string {
	lines, ok := linesOf(n)
	if !ok {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func linesOf(n ast.Node) (*gmtext.Segments, bool) {
	switch v := n.(type) {
	case *ast.Paragraph:
		return v.Lines(), true
	case *ast.TextBlock:
		return v.Lines(), true
	case *ast.CodeBlock:
		return v.Lines(), true
	case *ast.FencedCodeBlock:
		return v.Lines(), true
	default:
		return nil, false
	}
}

// firstSegment finds the first inline *ast.Text descendant of n, depth
// first, and returns its segment — used to recover a source line number
// for nodes (like Heading) that don't carry Lines() of their own.
func firstSegment(n ast.Node) (gmtext.Segment, bool) {
	if t, ok := n.(*ast.Text); ok {
		return t.Segment, true
	}
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if seg, ok := firstSegment(child); ok {
			return seg, true
		}
	}
	return gmtext.Segment{}, false
}

// lineNumber converts a byte offset into source into a 1-based line
// number.
func lineNumber(source []byte, offset int) int {
	if offset < 0 {
		offset = 0
	}
	if offset > len(source) {
		offset = len(source)
	}
	line := 1
	for _, b := range source[:offset] {
		if b == '\n' {
			line++
		}
	}
	return line
}

// nodeLine best-effort recovers a 1-based source line for n.
func nodeLine(source []byte, n ast.Node) int {
	if seg, ok := firstSegment(n); ok {
		return lineNumber(source, seg.Start)
	}
	return 0
}

// joinDocParagraphs joins accumulated doc paragraphs with a blank line
// between them and trims leading/trailing blank lines, so documentation
// text is preserved verbatim apart from that outer trim.
func joinDocParagraphs(paragraphs []string) string {
	joined := strings.Join(paragraphs, "\n\n")
	return strings.Trim(joined, "\n")
}
