// Package sqlgen emits SQL DDL for a coda: one CREATE TABLE per data
// type, with snake_case table and column names. This is one of the
// generator targets alongside Rust, Python, TypeScript, and OpenAPI.
package sqlgen

import (
	"strconv"

	"github.com/codas/codas/gen"
	"github.com/codas/codas/schema"
)

var keywords = map[string]bool{
	"select": true, "table": true, "insert": true, "update": true,
	"delete": true, "from": true, "where": true, "order": true,
	"group": true, "index": true, "key": true, "primary": true,
	"references": true, "type": true, "default": true, "value": true,
}

// Generate emits a sequence of CREATE TABLE statements for coda, one
// per data type, in the coda's declared order. Every table carries a
// leading data_type_ordinal column so rows loaded from different
// tables can be told apart the way the coda-wide tagged union
// discriminates its variants on the wire.
func Generate(coda *schema.Coda) (string, error) {
	w := &gen.Writer{}
	w.Printf("-- Generated by codas. Do not edit by hand.")
	if coda.Doc != "" {
		w.Printf("-- %s", coda.Doc)
	}

	for _, dt := range coda.Types {
		w.Blank()
		if dt.Doc != "" {
			w.Printf("-- %s", dt.Doc)
		}
		w.Printf("CREATE TABLE %s (", tableName(coda, dt))
		w.Indent()

		lines := make([]string, 0, len(dt.Fields)+1)
		lines = append(lines, "data_type_ordinal INTEGER NOT NULL DEFAULT "+strconv.Itoa(dt.Ordinal))
		for _, f := range dt.Fields {
			lines = append(lines, columnName(f.Name)+" "+sqlType(f.Type)+" NOT NULL")
		}
		for i, line := range lines {
			if i == len(lines)-1 {
				w.Line(line)
			} else {
				w.Line(line + ",")
			}
		}

		w.Dedent()
		w.Line(");")
	}

	return w.String(), nil
}

func tableName(coda *schema.Coda, dt *schema.DataType) string {
	return gen.SnakeCase(coda.Name) + "_" + gen.SnakeCase(dt.Name)
}

func columnName(name string) string {
	return gen.Reserve(gen.SnakeCase(name), keywords)
}

func sqlType(t schema.TypeRef) string {
	switch t.Kind {
	case schema.KindUnsigned, schema.KindSigned:
		if t.Width <= 32 {
			return "INTEGER"
		}
		return "BIGINT"
	case schema.KindFloat:
		if t.Width == 32 {
			return "REAL"
		}
		return "DOUBLE PRECISION"
	case schema.KindBool:
		return "BOOLEAN"
	case schema.KindText:
		return "TEXT"
	case schema.KindNested:
		// No surrogate keys are synthesized for a join, so a nested
		// record is stored as its own coda-encoded bytes, reusing the
		// wire codec's length-prefixed nested-record framing rather than
		// inventing a second representation.
		return "BLOB"
	case schema.KindList, schema.KindMap:
		// No first-normal-form column representation without a join
		// table this generator does not synthesize; store the
		// coda-encoded bytes of the whole value instead.
		return "BLOB"
	case schema.KindOptional:
		return sqlType(*t.Elem)
	case schema.KindDynamic:
		return "BLOB"
	default:
		return "BLOB"
	}
}
