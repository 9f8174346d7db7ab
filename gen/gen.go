// Package gen holds the identifier-mapping conventions and small
// writer helper shared by every target generator (gen/rustgen,
// gen/pygen, gen/tsgen, gen/openapigen, gen/sqlgen). Each subpackage
// walks a *schema.Coda exactly once and emits deterministic source for
// one target; this package only holds what they have in common.
//
// The Writer/Imports split is grounded on mb0-daql's gen.Ctx and
// gen.Imports (gen/gen.go): a generation context carrying an import
// list alongside the output buffer. That package builds its buffer on
// a third-party formatter (github.com/mb0/xelf/bfr) that isn't a
// confirmed dependency anywhere else in this retrieval pack (mb0-daql
// itself ships no go.mod), so Writer uses a plain strings.Builder
// instead.
package gen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/codas/codas/schema"
)

// Generator is the shape every target subpackage's Generate function
// satisfies: walk coda once, return deterministic source text. cmd/codas
// holds the name->Generator table (gen itself can't, since each target
// subpackage imports gen and a reverse import would cycle).
type Generator func(coda *schema.Coda) (string, error)

// Writer accumulates generated source text with simple indentation
// tracking, the way mb0-daql's gen.Ctx wraps a buffer.
type Writer struct {
	sb     strings.Builder
	indent int
}

// Printf writes a formatted, indented line (a trailing newline is
// added automatically).
func (w *Writer) Printf(format string, args ...any) {
	w.writeIndent()
	w.sb.WriteString(fmt.Sprintf(format, args...))
	w.sb.WriteByte('\n')
}

// Line writes s as an indented line.
func (w *Writer) Line(s string) {
	w.writeIndent()
	w.sb.WriteString(s)
	w.sb.WriteByte('\n')
}

// Blank writes an empty line.
func (w *Writer) Blank() { w.sb.WriteByte('\n') }

// Indent increases indentation for subsequently written lines.
func (w *Writer) Indent() { w.indent++ }

// Dedent decreases indentation for subsequently written lines.
func (w *Writer) Dedent() {
	if w.indent > 0 {
		w.indent--
	}
}

// String returns the accumulated source text.
func (w *Writer) String() string { return w.sb.String() }

func (w *Writer) writeIndent() {
	for i := 0; i < w.indent; i++ {
		w.sb.WriteString("    ")
	}
}

// Imports is an alphabetically sorted, deduplicated set of import
// paths/module names, mirroring mb0-daql's gen.Imports.
type Imports struct {
	list []string
}

// Add inserts path into the import set if not already present.
func (i *Imports) Add(path string) {
	idx := sort.SearchStrings(i.list, path)
	if idx < len(i.list) && i.list[idx] == path {
		return
	}
	i.list = append(i.list, "")
	copy(i.list[idx+1:], i.list[idx:])
	i.list[idx] = path
}

// List returns the sorted import paths.
func (i *Imports) List() []string { return i.list }
