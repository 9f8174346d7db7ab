// Package schema holds the in-memory coda schema model and the Markdown
// parser that builds it (see parse.go). A Coda is immutable once parsed:
// generators and the codec engine only ever borrow it.
package schema

import "fmt"

// TypeKind tags the variant carried by a TypeRef.
type TypeKind uint8

const (
	KindUnsigned TypeKind = iota
	KindSigned
	KindFloat
	KindBool
	KindText
	KindNested
	KindList
	KindMap
	KindOptional
	KindDynamic
)

func (k TypeKind) String() string {
	switch k {
	case KindUnsigned:
		return "unsigned"
	case KindSigned:
		return "signed"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	case KindNested:
		return "nested"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindOptional:
		return "optional"
	case KindDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// TypeRef is a tagged variant over the type expressions the coda grammar
// accepts: fixed-width numerics, bool, text, a reference to a sibling data
// type, a list, a map, an optional wrapper, or the dynamic/unspecified
// type.
type TypeRef struct {
	Kind TypeKind

	// Width is the bit width for Unsigned/Signed (8, 16, 32, 64) and
	// Float (32, 64). Unused otherwise.
	Width int

	// NestedName is the unresolved name for Kind == KindNested, as
	// written in the source. Parse's resolution pass (Coda.resolve)
	// populates Nested from it.
	NestedName string
	Nested     *DataType

	// Elem is the element type for Kind == KindList and the wrapped
	// type for Kind == KindOptional.
	Elem *TypeRef

	// Key and Value are the key/value types for Kind == KindMap.
	Key   *TypeRef
	Value *TypeRef
}

// Unsigned builds an unsigned integer TypeRef of the given width.
func Unsigned(width int) TypeRef { return TypeRef{Kind: KindUnsigned, Width: width} }

// Signed builds a signed integer TypeRef of the given width.
func Signed(width int) TypeRef { return TypeRef{Kind: KindSigned, Width: width} }

// Float builds a floating point TypeRef of the given width.
func Float(width int) TypeRef { return TypeRef{Kind: KindFloat, Width: width} }

// Bool builds a boolean TypeRef.
func Bool() TypeRef { return TypeRef{Kind: KindBool} }

// Text builds a UTF-8 text TypeRef.
func Text() TypeRef { return TypeRef{Kind: KindText} }

// NestedRef builds an unresolved reference to a sibling data type by name.
func NestedRef(name string) TypeRef { return TypeRef{Kind: KindNested, NestedName: name} }

// List builds a list TypeRef over elem.
func List(elem TypeRef) TypeRef { return TypeRef{Kind: KindList, Elem: &elem} }

// Map builds a map TypeRef over key and value.
func Map(key, value TypeRef) TypeRef { return TypeRef{Kind: KindMap, Key: &key, Value: &value} }

// Optional builds an optional TypeRef wrapping inner.
func Optional(inner TypeRef) TypeRef { return TypeRef{Kind: KindOptional, Elem: &inner} }

// Dynamic builds the self-described "unspecified" TypeRef.
func Dynamic() TypeRef { return TypeRef{Kind: KindDynamic} }

// String renders the TypeRef the way it would appear in coda Markdown
// source, used in generator diagnostics and error messages.
func (t TypeRef) String() string {
	switch t.Kind {
	case KindUnsigned:
		return fmt.Sprintf("u%d", t.Width)
	case KindSigned:
		return fmt.Sprintf("i%d", t.Width)
	case KindFloat:
		return fmt.Sprintf("f%d", t.Width)
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	case KindNested:
		return t.NestedName
	case KindList:
		return "list of " + t.Elem.String()
	case KindMap:
		return "map of " + t.Key.String() + " to " + t.Value.String()
	case KindOptional:
		return "optional " + t.Elem.String()
	case KindDynamic:
		return "unspecified"
	default:
		return "?"
	}
}

// Field is a named, typed member of a DataType. Ordinal is its zero-based
// position within the data type's Fields slice — the only identity used on
// the wire.
type Field struct {
	Name    string
	Doc     string
	Type    TypeRef
	Ordinal int
	Line    int
}

// DataType is a named record within a Coda. Ordinal is its zero-based
// position within the coda's Types slice.
type DataType struct {
	Name    string
	Doc     string
	Fields  []*Field
	Ordinal int
	Line    int
}

// Field looks up a field by name.
func (d *DataType) Field(name string) (*Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Coda is a named, ordered family of data types, parsed from one Markdown
// document. Once returned from Parse, a Coda is immutable.
type Coda struct {
	Name  string
	Doc   string
	Types []*DataType
}

// DataType looks up a data type by name.
func (c *Coda) DataType(name string) (*DataType, bool) {
	for _, t := range c.Types {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// ByOrdinal looks up a data type by its wire ordinal.
func (c *Coda) ByOrdinal(ord int) (*DataType, bool) {
	if ord < 0 || ord >= len(c.Types) {
		return nil, false
	}
	return c.Types[ord], true
}
