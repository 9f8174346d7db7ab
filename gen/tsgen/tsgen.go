// Package tsgen emits TypeScript source for a coda: one interface per
// data type, CamelCase naming, and a discriminated union type for the
// coda as a whole.
//
// Codecs are not generated here, mirroring original_source's own
// langs/typescript.rs, which documents the same omission for its
// TypeScript target: wire encode/decode is only worth generating once
// there's a native TypeScript runtime library for this format to hand
// field values to. gen/rustgen generates codec methods because Rust is
// this format's own native implementation language.
package tsgen

import (
	"fmt"

	"github.com/codas/codas/gen"
	"github.com/codas/codas/schema"
)

var keywords = map[string]bool{
	"interface": true, "type": true, "class": true, "function": true,
	"const": true, "let": true, "var": true, "import": true, "export": true,
	"null": true, "undefined": true, "enum": true, "new": true,
}

// Generate emits a complete TypeScript module for coda.
func Generate(coda *schema.Coda) (string, error) {
	w := &gen.Writer{}
	w.Line("// Generated by codas. Do not edit by hand.")
	w.Blank()
	if coda.Doc != "" {
		w.Printf("// %s", coda.Doc)
	}

	for _, dt := range coda.Types {
		w.Blank()
		if dt.Doc != "" {
			w.Printf("// %s", dt.Doc)
		}
		w.Printf("export interface %s {", gen.PascalCase(dt.Name))
		w.Indent()
		w.Printf("kind: %q;", gen.PascalCase(dt.Name))
		for _, f := range dt.Fields {
			name := gen.Reserve(gen.CamelCase(f.Name), keywords)
			w.Printf("%s: %s;", name, tsType(f.Type))
		}
		w.Dedent()
		w.Line("}")
	}

	w.Blank()
	names := make([]string, len(coda.Types))
	for i, dt := range coda.Types {
		names[i] = gen.PascalCase(dt.Name)
	}
	w.Printf("export type %s =", gen.PascalCase(coda.Name))
	w.Indent()
	for i, name := range names {
		sep := " |"
		if i == len(names)-1 {
			sep = ";"
		}
		w.Printf("%s%s", name, sep)
	}
	w.Dedent()

	return w.String(), nil
}

func tsType(t schema.TypeRef) string {
	switch t.Kind {
	case schema.KindUnsigned, schema.KindSigned, schema.KindFloat:
		return "number"
	case schema.KindBool:
		return "boolean"
	case schema.KindText:
		return "string"
	case schema.KindNested:
		return gen.PascalCase(t.NestedName)
	case schema.KindList:
		return tsType(*t.Elem) + "[]"
	case schema.KindMap:
		return fmt.Sprintf("Map<%s, %s>", tsType(*t.Key), tsType(*t.Value))
	case schema.KindOptional:
		return tsType(*t.Elem) + " | undefined"
	case schema.KindDynamic:
		return "{ typeId: number; bytes: Uint8Array }"
	default:
		return "unknown"
	}
}
