// Package pygen emits Python source for a coda: one dataclass per data
// type with snake_case field names, and a Union type alias for the coda
// as a whole. Class names and the alias are PascalCase. The generated
// source does not name its own module, and nothing here snake-cases a
// module name: the file name is chosen by the caller.
//
// Codecs are not generated here, the way original_source's own
// langs/python.rs documents the same omission for its Python target:
// wire encode/decode is only worth generating once there's a native
// Python runtime library for this format to hand field values to.
// gen/rustgen generates codec methods because Rust is this format's own
// native implementation language.
package pygen

import (
	"fmt"

	"github.com/codas/codas/gen"
	"github.com/codas/codas/schema"
)

var keywords = map[string]bool{
	"class": true, "def": true, "import": true, "from": true, "type": true,
	"list": true, "dict": true, "set": true, "str": true, "None": true,
	"pass": true, "return": true, "self": true, "lambda": true, "global": true,
}

// Generate emits a complete Python module for coda.
func Generate(coda *schema.Coda) (string, error) {
	w := &gen.Writer{}
	w.Line("# Generated by codas. Do not edit by hand.")
	w.Line("from __future__ import annotations")
	w.Line("from dataclasses import dataclass, field")
	w.Line("from typing import Union")
	w.Blank()
	if coda.Doc != "" {
		w.Printf("# %s", coda.Doc)
	}
	w.Blank()

	for _, dt := range coda.Types {
		if dt.Doc != "" {
			w.Printf("# %s", dt.Doc)
		}
		w.Line("@dataclass")
		w.Printf("class %s:", gen.PascalCase(dt.Name))
		w.Indent()
		if len(dt.Fields) == 0 {
			w.Line("pass")
		}
		for _, f := range dt.Fields {
			name := gen.Reserve(gen.SnakeCase(f.Name), keywords)
			pyType, defaultExpr := pythonType(f.Type)
			if defaultExpr == "" {
				w.Printf("%s: %s", name, pyType)
			} else {
				w.Printf("%s: %s = %s", name, pyType, defaultExpr)
			}
		}
		w.Dedent()
		w.Blank()
	}

	names := make([]string, len(coda.Types))
	for i, dt := range coda.Types {
		names[i] = gen.PascalCase(dt.Name)
	}
	w.Printf("%s = Union[%s]", gen.PascalCase(coda.Name), joinComma(names))

	return w.String(), nil
}

func pythonType(t schema.TypeRef) (pyType, defaultExpr string) {
	switch t.Kind {
	case schema.KindUnsigned, schema.KindSigned:
		return "int", ""
	case schema.KindFloat:
		return "float", ""
	case schema.KindBool:
		return "bool", ""
	case schema.KindText:
		return "str", ""
	case schema.KindNested:
		return gen.PascalCase(t.NestedName), ""
	case schema.KindList:
		elem, _ := pythonType(*t.Elem)
		return fmt.Sprintf("list[%s]", elem), "field(default_factory=list)"
	case schema.KindMap:
		key, _ := pythonType(*t.Key)
		val, _ := pythonType(*t.Value)
		// A list of pairs preserves insertion order; dict literals in
		// Python 3.7+ also preserve insertion order, but a generated
		// field default still needs an explicit factory either way.
		return fmt.Sprintf("dict[%s, %s]", key, val), "field(default_factory=dict)"
	case schema.KindOptional:
		inner, _ := pythonType(*t.Elem)
		return fmt.Sprintf("%s | None", inner), "None"
	case schema.KindDynamic:
		return "tuple[int, bytes]", ""
	default:
		return "object", ""
	}
}

func joinComma(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ", "
		}
		out += item
	}
	return out
}
