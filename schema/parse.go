package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"go.uber.org/multierr"
)

// markdownParserInstance is built once and reused across calls, the way
// bureau-foundation-bureau/lib/ticketui/markdown.go caches its goldmark
// parser: the configuration never changes, and Parser().Parse(reader)
// creates fresh per-call state.
var (
	markdownParserInstance goldmark.Markdown
	markdownParserOnce     sync.Once
)

func markdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParserInstance = goldmark.New()
	})
	return markdownParserInstance
}

// Parse parses a single coda Markdown document. Parsing stops at the
// first structural problem, which is returned as a *ParseError; a
// single-file invocation always fails on error rather than skipping.
func Parse(source []byte) (*Coda, error) {
	reader := gmtext.NewReader(source)
	doc := markdownParser().Parser().Parse(reader)

	coda, err := buildCoda(source, doc)
	if err != nil {
		return nil, err
	}
	if err := coda.resolve(); err != nil {
		return nil, err
	}
	return coda, nil
}

// ParseFile reads path and parses it as a coda document.
func ParseFile(path string) (*Coda, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// ParseDirectory parses every *.md file directly under dir. Documents
// that fail to parse are skipped rather than aborting the batch; their
// errors are combined (via go.uber.org/multierr) and returned alongside
// the codas that did parse, so callers can report every skipped file at
// once without losing the ones that succeeded.
func ParseDirectory(dir string) (codas []*Coda, skipped error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		coda, err := ParseFile(path)
		if err != nil {
			skipped = multierr.Append(skipped, fmt.Errorf("%s: %w", path, err))
			continue
		}
		codas = append(codas, coda)
	}
	return codas, skipped
}

// docTarget identifies where accumulating documentation paragraphs should
// land: the coda itself, or whichever data type is currently open.
type docTarget struct {
	paragraphs []string
	done       bool
}

func (d *docTarget) add(text string) {
	if !d.done && text != "" {
		d.paragraphs = append(d.paragraphs, text)
	}
}

func (d *docTarget) flush() string {
	d.done = true
	return joinDocParagraphs(d.paragraphs)
}

// buildCoda walks the goldmark document tree and recognizes the
// restricted coda grammar:
//
//	Coda       := '#'  Inline(`Name` 'Coda') Doc? DataType*
//	DataType   := '##' Inline(`Name` 'Data') Doc? Field*
//	Field      := '+'  '`' Name '`' TypeExpr Doc?
func buildCoda(source []byte, doc ast.Node) (*Coda, error) {
	var coda *Coda
	var curType *DataType
	var doct docTarget

	closeDoc := func() {
		text := doct.flush()
		if curType != nil {
			curType.Doc = text
		} else if coda != nil {
			coda.Doc = text
		}
	}

	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.Kind() {
		case ast.KindHeading:
			heading := child.(*ast.Heading)
			line := nodeLine(source, heading)

			switch heading.Level {
			case 1:
				if coda != nil {
					return nil, newParseError(ErrMissingCodaHeader, line,
						"a coda document may declare only one top-level (#) header")
				}
				name, suffix, ok := headingNameAndSuffix(source, heading)
				if !ok || strings.TrimSpace(suffix) != "Coda" {
					return nil, newParseError(ErrMissingCodaHeader, line,
						"expected `# `Name` Coda`, got %q", renderHeadingText(source, heading))
				}
				coda = &Coda{Name: name}
				doct = docTarget{}

			case 2:
				if coda == nil {
					return nil, newParseError(ErrMissingCodaHeader, line,
						"data type header found before the coda's `# `Name` Coda` header")
				}
				closeDoc()
				name, suffix, ok := headingNameAndSuffix(source, heading)
				if !ok || strings.TrimSpace(suffix) != "Data" {
					return nil, newParseError(ErrMissingDataHeader, line,
						"expected `## `Name` Data`, got %q", renderHeadingText(source, heading))
				}
				if _, exists := coda.DataType(name); exists {
					return nil, newParseError(ErrDuplicateName, line,
						"duplicate data type name %q", name)
				}
				dt := &DataType{Name: name, Ordinal: len(coda.Types), Line: line}
				coda.Types = append(coda.Types, dt)
				curType = dt
				doct = docTarget{}
			}

		case ast.KindList:
			list := child.(*ast.List)
			if list.Marker != '+' {
				// Not a field list (e.g. an ordinary bulleted note in
				// free-text doc); treat its rendered text as doc prose.
				doct.add(renderListAsText(source, list))
				continue
			}
			if curType == nil {
				return nil, newParseError(ErrMalformedFieldLine, nodeLine(source, list),
					"`+` field bullets must appear under a data type (`## `Name` Data`) header")
			}
			if !doct.done {
				closeDoc()
			}
			for item := list.FirstChild(); item != nil; item = item.NextSibling() {
				field, err := parseFieldItem(source, item)
				if err != nil {
					return nil, err
				}
				if _, exists := curType.Field(field.Name); exists {
					return nil, newParseError(ErrDuplicateName, field.Line,
						"duplicate field name %q in data type %q", field.Name, curType.Name)
				}
				field.Ordinal = len(curType.Fields)
				curType.Fields = append(curType.Fields, field)
			}

		case ast.KindParagraph, ast.KindTextBlock:
			doct.add(rawBlockText(source, child))

		default:
			// Thematic breaks, block quotes, and other Markdown outside
			// the restricted grammar are ignored rather than rejected;
			// only headers and `+` field bullets carry structural
			// meaning.
		}
	}

	if coda == nil {
		return nil, newParseError(ErrMissingCodaHeader, 0,
			"document does not start with a `# `Name` Coda` header")
	}
	if !doct.done {
		closeDoc()
	}
	return coda, nil
}

// headingNameAndSuffix splits a heading's inline content into the code
// span name and the trailing text, per `` `Name` Coda `` / `` `Name` Data ``.
func headingNameAndSuffix(source []byte, heading *ast.Heading) (name, suffix string, ok bool) {
	first := heading.FirstChild()
	span, isSpan := first.(*ast.CodeSpan)
	if !isSpan {
		return "", "", false
	}
	name = codeSpanText(source, span)
	if !isIdent(name) {
		return "", "", false
	}
	suffix = strings.TrimSpace(inlineText(span.NextSibling())(source))
	return name, suffix, true
}

func renderHeadingText(source []byte, heading *ast.Heading) string {
	return strings.TrimSpace(inlineText(heading.FirstChild())(source))
}

// parseFieldItem parses one `+` list item as a Field:
//
//	Field := '+'  '`' Name '`' TypeExpr Doc?
func parseFieldItem(source []byte, item ast.Node) (*Field, error) {
	line := nodeLine(source, item)
	firstBlock := item.FirstChild()
	if firstBlock == nil {
		return nil, newParseError(ErrMalformedFieldLine, line, "empty field bullet")
	}

	first := firstBlock.FirstChild()
	span, isSpan := first.(*ast.CodeSpan)
	if !isSpan {
		return nil, newParseError(ErrMalformedFieldLine, line,
			"field line must start with a `name` code span")
	}
	name := codeSpanText(source, span)
	if !isIdent(name) {
		return nil, newParseError(ErrMalformedFieldLine, line, "invalid field name %q", name)
	}

	typeText := strings.TrimSpace(inlineText(span.NextSibling())(source))
	if typeText == "" {
		return nil, newParseError(ErrMalformedFieldLine, line, "field %q is missing a type", name)
	}
	cursor := &tokCursor{toks: strings.Fields(typeText)}
	typeRef, err := parseTypeExpr(cursor)
	if err != nil {
		return nil, newParseError(ErrUnknownTypeKeyword, line, "field %q: %v", name, err)
	}
	if !cursor.done() {
		return nil, newParseError(ErrMalformedFieldLine, line,
			"field %q has trailing tokens after its type", name)
	}

	var docParas []string
	for block := firstBlock.NextSibling(); block != nil; block = block.NextSibling() {
		if block.Kind() == ast.KindList {
			continue
		}
		if text := rawBlockText(source, block); text != "" {
			docParas = append(docParas, text)
		}
	}

	return &Field{
		Name: name,
		Doc:  joinDocParagraphs(docParas),
		Type: typeRef,
		Line: line,
	}, nil
}

// renderListAsText flattens a non-field list back to plain text for use
// as documentation prose, one line per item.
func renderListAsText(source []byte, list *ast.List) string {
	var sb strings.Builder
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		for block := item.FirstChild(); block != nil; block = block.NextSibling() {
			if text := rawBlockText(source, block); text != "" {
				sb.WriteString("- ")
				sb.WriteString(text)
				sb.WriteByte('\n')
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
