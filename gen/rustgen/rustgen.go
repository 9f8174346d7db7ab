// Package rustgen emits Rust source for a coda: one struct per data
// type with its own wire encode/decode methods, and a tagged enum
// union over them with its own enveloped encode/decode, the way
// mb0-daql's gen/gengo walks a schema once emitting one Go file
// (gengo/file.go's FileCtx.WriteDom), adapted here to Rust's type
// syntax and to this wire format's own codec.
package rustgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/codas/codas/gen"
	"github.com/codas/codas/schema"
)

var keywords = map[string]bool{
	"type": true, "struct": true, "enum": true, "fn": true, "let": true,
	"mut": true, "pub": true, "impl": true, "trait": true, "match": true,
	"self": true, "move": true, "box": true, "ref": true,
}

// Generate emits a complete Rust source file for coda: one struct per
// data type plus its encode/decode methods, and a tagged enum union
// over them with its own enveloped encode/decode.
func Generate(coda *schema.Coda) (string, error) {
	w := &gen.Writer{}
	w.Line("// Generated by codas. Do not edit by hand.")
	w.Blank()
	w.Printf("/// %s", coda.Doc)
	w.Printf("pub mod %s {", gen.SnakeCase(coda.Name))
	w.Indent()
	writeCodecHelpers(w)

	for _, dt := range coda.Types {
		if dt.Doc != "" {
			w.Printf("/// %s", dt.Doc)
		}
		w.Printf("#[derive(Debug, Clone, PartialEq)]")
		w.Printf("pub struct %s {", gen.PascalCase(dt.Name))
		w.Indent()
		for _, f := range dt.Fields {
			name := gen.Reserve(gen.SnakeCase(f.Name), keywords)
			w.Printf("pub %s: %s,", name, rustType(f.Type))
		}
		w.Dedent()
		w.Line("}")
		w.Blank()

		writeStructCodec(w, dt)
	}

	w.Printf("/// Tagged union over every data type in `%s`.", coda.Name)
	w.Printf("#[derive(Debug, Clone, PartialEq)]")
	w.Printf("pub enum %s {", gen.PascalCase(coda.Name))
	w.Indent()
	for _, dt := range coda.Types {
		w.Printf("%s(%s),", gen.PascalCase(dt.Name), gen.PascalCase(dt.Name))
	}
	w.Dedent()
	w.Line("}")
	w.Blank()

	writeUnionCodec(w, coda)

	w.Dedent()
	w.Line("}")
	return w.String(), nil
}

// writeCodecHelpers emits the module-level varint/text helpers every
// struct's encode/decode method leans on: unsigned and zigzag-signed
// LEB128 varints and length-prefixed UTF-8 text, matching the same
// wire primitives package wire implements for this Go module.
func writeCodecHelpers(w *gen.Writer) {
	w.Line("fn write_uvarint(buf: &mut Vec<u8>, mut x: u64) {")
	w.Indent()
	w.Line("loop {")
	w.Indent()
	w.Line("let byte = (x & 0x7f) as u8;")
	w.Line("x >>= 7;")
	w.Line("if x == 0 {")
	w.Indent()
	w.Line("buf.push(byte);")
	w.Line("break;")
	w.Dedent()
	w.Line("}")
	w.Line("buf.push(byte | 0x80);")
	w.Dedent()
	w.Line("}")
	w.Dedent()
	w.Line("}")
	w.Blank()

	w.Line("fn read_uvarint(bytes: &[u8], pos: &mut usize) -> Result<u64, String> {")
	w.Indent()
	w.Line("let mut x: u64 = 0;")
	w.Line("let mut shift = 0;")
	w.Line("loop {")
	w.Indent()
	w.Line(`let byte = *bytes.get(*pos).ok_or("truncated varint")?;`)
	w.Line("*pos += 1;")
	w.Line("x |= ((byte & 0x7f) as u64) << shift;")
	w.Line("if byte & 0x80 == 0 {")
	w.Indent()
	w.Line("return Ok(x);")
	w.Dedent()
	w.Line("}")
	w.Line("shift += 7;")
	w.Dedent()
	w.Line("}")
	w.Dedent()
	w.Line("}")
	w.Blank()

	w.Line("fn write_varint(buf: &mut Vec<u8>, x: i64) {")
	w.Indent()
	w.Line("let zigzag = ((x << 1) ^ (x >> 63)) as u64;")
	w.Line("write_uvarint(buf, zigzag);")
	w.Dedent()
	w.Line("}")
	w.Blank()

	w.Line("fn read_varint(bytes: &[u8], pos: &mut usize) -> Result<i64, String> {")
	w.Indent()
	w.Line("let zigzag = read_uvarint(bytes, pos)?;")
	w.Line("Ok(((zigzag >> 1) as i64) ^ -((zigzag & 1) as i64))")
	w.Dedent()
	w.Line("}")
	w.Blank()

	w.Line("fn write_text(buf: &mut Vec<u8>, s: &str) {")
	w.Indent()
	w.Line("write_uvarint(buf, s.len() as u64);")
	w.Line("buf.extend_from_slice(s.as_bytes());")
	w.Dedent()
	w.Line("}")
	w.Blank()

	w.Line("fn read_text(bytes: &[u8], pos: &mut usize) -> Result<String, String> {")
	w.Indent()
	w.Line("let n = read_uvarint(bytes, pos)? as usize;")
	w.Line(`let raw = bytes.get(*pos..*pos + n).ok_or("truncated text")?;`)
	w.Line(`let s = core::str::from_utf8(raw).map_err(|e| e.to_string())?.to_string();`)
	w.Line("*pos += n;")
	w.Line("Ok(s)")
	w.Dedent()
	w.Line("}")
	w.Blank()
}

// writeStructCodec emits dt's encode/decode pair: field-order encoding
// with no outer length prefix or ordinal, the bare field_payload form a
// nested record's own length prefix, or an enveloped union, wraps.
// Decoding assumes a payload written by the same schema; it does not
// reproduce the core engine's additive-field defaulting.
func writeStructCodec(w *gen.Writer, dt *schema.DataType) {
	name := gen.PascalCase(dt.Name)
	w.Printf("impl %s {", name)
	w.Indent()

	w.Line("pub fn encode(&self) -> Vec<u8> {")
	w.Indent()
	w.Line("let mut buf = Vec::new();")
	for _, f := range dt.Fields {
		fieldName := gen.Reserve(gen.SnakeCase(f.Name), keywords)
		emitEncodeStmt(w, "buf", "self."+fieldName, f.Type, 0)
	}
	w.Line("buf")
	w.Dedent()
	w.Line("}")
	w.Blank()

	w.Line("pub fn decode(bytes: &[u8]) -> Result<Self, String> {")
	w.Indent()
	w.Line("let mut pos = 0usize;")
	fieldNames := make([]string, len(dt.Fields))
	for i, f := range dt.Fields {
		fieldNames[i] = gen.Reserve(gen.SnakeCase(f.Name), keywords)
		emitDecodeStmt(w, fieldNames[i], f.Type, 0)
	}
	w.Printf("Ok(Self { %s })", strings.Join(fieldNames, ", "))
	w.Dedent()
	w.Line("}")

	w.Dedent()
	w.Line("}")
	w.Blank()
}

// writeUnionCodec emits the coda-wide enveloped form: a length prefix
// covering the value encoding, the variant's ordinal, and then the
// value encoding itself (the struct's own length prefix plus its field
// payload) — the same layout codec.EncodeEnvelope/DecodeEnvelope use.
func writeUnionCodec(w *gen.Writer, coda *schema.Coda) {
	name := gen.PascalCase(coda.Name)
	w.Printf("impl %s {", name)
	w.Indent()

	w.Line("pub fn encode(&self) -> Vec<u8> {")
	w.Indent()
	w.Line("let (ordinal, payload) = match self {")
	w.Indent()
	for _, dt := range coda.Types {
		typeName := gen.PascalCase(dt.Name)
		w.Printf("%s::%s(v) => (%du64, v.encode()),", name, typeName, dt.Ordinal)
	}
	w.Dedent()
	w.Line("};")
	w.Line("let mut value_encoding = Vec::new();")
	w.Line("write_uvarint(&mut value_encoding, payload.len() as u64);")
	w.Line("value_encoding.extend_from_slice(&payload);")
	w.Blank()
	w.Line("let mut buf = Vec::new();")
	w.Line("write_uvarint(&mut buf, value_encoding.len() as u64);")
	w.Line("write_uvarint(&mut buf, ordinal);")
	w.Line("buf.extend_from_slice(&value_encoding);")
	w.Line("buf")
	w.Dedent()
	w.Line("}")
	w.Blank()

	w.Line("pub fn decode(bytes: &[u8]) -> Result<(Self, usize), String> {")
	w.Indent()
	w.Line("let mut pos = 0usize;")
	w.Line("let envelope_len = read_uvarint(bytes, &mut pos)? as usize;")
	w.Line("let ordinal = read_uvarint(bytes, &mut pos)?;")
	w.Line("let consumed = pos + envelope_len;")
	w.Line("let payload_len = read_uvarint(bytes, &mut pos)? as usize;")
	w.Line(`let payload = bytes.get(pos..pos + payload_len).ok_or("truncated envelope")?;`)
	w.Line("let value = match ordinal {")
	w.Indent()
	for _, dt := range coda.Types {
		typeName := gen.PascalCase(dt.Name)
		w.Printf("%d => %s::%s(%s::decode(payload)?),", dt.Ordinal, name, typeName, typeName)
	}
	w.Line(`other => return Err(format!("unknown data type ordinal {other}")),`)
	w.Dedent()
	w.Line("};")
	w.Line("Ok((value, consumed))")
	w.Dedent()
	w.Line("}")

	w.Dedent()
	w.Line("}")
}

// emitEncodeStmt writes the statements that append expr's wire
// encoding into buf, recursing through list/map/optional/nested
// element types. depth only disambiguates the local variable names
// introduced by nested loops.
func emitEncodeStmt(w *gen.Writer, buf, expr string, t schema.TypeRef, depth int) {
	switch t.Kind {
	case schema.KindUnsigned:
		w.Printf("write_uvarint(&mut %s, %s as u64);", buf, expr)
	case schema.KindSigned:
		w.Printf("write_varint(&mut %s, %s as i64);", buf, expr)
	case schema.KindFloat:
		if t.Width == 32 {
			w.Printf("%s.extend_from_slice(&(%s as f32).to_le_bytes());", buf, expr)
		} else {
			w.Printf("%s.extend_from_slice(&(%s as f64).to_le_bytes());", buf, expr)
		}
	case schema.KindBool:
		w.Printf("%s.push(if %s { 1 } else { 0 });", buf, expr)
	case schema.KindText:
		w.Printf("write_text(&mut %s, &%s);", buf, expr)
	case schema.KindNested:
		nested := fmt.Sprintf("nested%d", depth)
		w.Printf("let %s = %s.encode();", nested, expr)
		w.Printf("write_uvarint(&mut %s, %s.len() as u64);", buf, nested)
		w.Printf("%s.extend_from_slice(&%s);", buf, nested)
	case schema.KindList:
		item := fmt.Sprintf("item%d", depth)
		w.Printf("write_uvarint(&mut %s, %s.len() as u64);", buf, expr)
		w.Printf("for %s in %s.iter() {", item, expr)
		w.Indent()
		emitEncodeStmt(w, buf, item, *t.Elem, depth+1)
		w.Dedent()
		w.Line("}")
	case schema.KindMap:
		key := fmt.Sprintf("key%d", depth)
		val := fmt.Sprintf("val%d", depth)
		w.Printf("write_uvarint(&mut %s, %s.len() as u64);", buf, expr)
		w.Printf("for (%s, %s) in %s.iter() {", key, val, expr)
		w.Indent()
		emitEncodeStmt(w, buf, key, *t.Key, depth+1)
		emitEncodeStmt(w, buf, val, *t.Value, depth+1)
		w.Dedent()
		w.Line("}")
	case schema.KindOptional:
		value := fmt.Sprintf("value%d", depth)
		w.Printf("match &%s {", expr)
		w.Indent()
		w.Printf("Some(%s) => {", value)
		w.Indent()
		w.Printf("%s.push(1);", buf)
		emitEncodeStmt(w, buf, value, *t.Elem, depth+1)
		w.Dedent()
		w.Line("}")
		w.Printf("None => %s.push(0),", buf)
		w.Dedent()
		w.Line("}")
	case schema.KindDynamic:
		w.Printf("write_uvarint(&mut %s, %s.0);", buf, expr)
		w.Printf("write_uvarint(&mut %s, %s.1.len() as u64);", buf, expr)
		w.Printf("%s.extend_from_slice(&%s.1);", buf, expr)
	}
}

// emitDecodeStmt writes the statements that decode one value of type t
// from bytes, advancing pos, and binds the result to `let <target>`.
func emitDecodeStmt(w *gen.Writer, target string, t schema.TypeRef, depth int) {
	switch t.Kind {
	case schema.KindUnsigned:
		w.Printf("let %s = read_uvarint(bytes, &mut pos)? as %s;", target, rustType(t))
	case schema.KindSigned:
		w.Printf("let %s = read_varint(bytes, &mut pos)? as %s;", target, rustType(t))
	case schema.KindFloat:
		width := 4
		kind := "f32"
		if t.Width == 64 {
			width, kind = 8, "f64"
		}
		w.Printf("let %s = {", target)
		w.Indent()
		w.Printf(`let raw = bytes.get(pos..pos + %d).ok_or("truncated")?;`, width)
		w.Printf("pos += %d;", width)
		w.Printf("%s::from_le_bytes(raw.try_into().unwrap())", kind)
		w.Dedent()
		w.Line("};")
	case schema.KindBool:
		w.Printf("let %s = {", target)
		w.Indent()
		w.Line(`let b = *bytes.get(pos).ok_or("truncated")?;`)
		w.Line("pos += 1;")
		w.Line("b != 0")
		w.Dedent()
		w.Line("};")
	case schema.KindText:
		w.Printf("let %s = read_text(bytes, &mut pos)?;", target)
	case schema.KindNested:
		lenVar := fmt.Sprintf("len%d", depth)
		w.Printf("let %s = read_uvarint(bytes, &mut pos)? as usize;", lenVar)
		w.Printf(`let %s = Box::new(%s::decode(bytes.get(pos..pos + %s).ok_or("truncated")?)?);`,
			target, gen.PascalCase(t.NestedName), lenVar)
		w.Printf("pos += %s;", lenVar)
	case schema.KindList:
		nVar := fmt.Sprintf("n%d", depth)
		elem := fmt.Sprintf("elem%d", depth)
		w.Printf("let %s = read_uvarint(bytes, &mut pos)? as usize;", nVar)
		w.Printf("let mut %s = Vec::with_capacity(%s);", target, nVar)
		w.Printf("for _ in 0..%s {", nVar)
		w.Indent()
		emitDecodeStmt(w, elem, *t.Elem, depth+1)
		w.Printf("%s.push(%s);", target, elem)
		w.Dedent()
		w.Line("}")
	case schema.KindMap:
		nVar := fmt.Sprintf("n%d", depth)
		key := fmt.Sprintf("key%d", depth)
		val := fmt.Sprintf("val%d", depth)
		w.Printf("let %s = read_uvarint(bytes, &mut pos)? as usize;", nVar)
		w.Printf("let mut %s = Vec::with_capacity(%s);", target, nVar)
		w.Printf("for _ in 0..%s {", nVar)
		w.Indent()
		emitDecodeStmt(w, key, *t.Key, depth+1)
		emitDecodeStmt(w, val, *t.Value, depth+1)
		w.Printf("%s.push((%s, %s));", target, key, val)
		w.Dedent()
		w.Line("}")
	case schema.KindOptional:
		tag := fmt.Sprintf("tag%d", depth)
		inner := fmt.Sprintf("inner%d", depth)
		w.Printf(`let %s = *bytes.get(pos).ok_or("truncated")?;`, tag)
		w.Line("pos += 1;")
		w.Printf("let %s = if %s != 0 {", target, tag)
		w.Indent()
		emitDecodeStmt(w, inner, *t.Elem, depth+1)
		w.Printf("Some(%s)", inner)
		w.Dedent()
		w.Line("} else {")
		w.Indent()
		w.Line("None")
		w.Dedent()
		w.Line("};")
	case schema.KindDynamic:
		tid := fmt.Sprintf("type_id%d", depth)
		dlen := fmt.Sprintf("dyn_len%d", depth)
		w.Printf("let %s = read_uvarint(bytes, &mut pos)?;", tid)
		w.Printf("let %s = read_uvarint(bytes, &mut pos)? as usize;", dlen)
		w.Printf(`let %s = (%s, bytes.get(pos..pos + %s).ok_or("truncated")?.to_vec());`, target, tid, dlen)
		w.Printf("pos += %s;", dlen)
	}
}

func rustType(t schema.TypeRef) string {
	switch t.Kind {
	case schema.KindUnsigned:
		return fmt.Sprintf("u%d", t.Width)
	case schema.KindSigned:
		return fmt.Sprintf("i%d", t.Width)
	case schema.KindFloat:
		return fmt.Sprintf("f%d", t.Width)
	case schema.KindBool:
		return "bool"
	case schema.KindText:
		return "String"
	case schema.KindNested:
		// Boxed so self-referential/cyclic codas still have a finite size.
		return "Box<" + gen.PascalCase(t.NestedName) + ">"
	case schema.KindList:
		return "Vec<" + rustType(*t.Elem) + ">"
	case schema.KindMap:
		// A Vec of pairs preserves the coda's insertion-order map
		// semantics, which a hash map would not.
		return "Vec<(" + rustType(*t.Key) + ", " + rustType(*t.Value) + ")>"
	case schema.KindOptional:
		return "Option<" + rustType(*t.Elem) + ">"
	case schema.KindDynamic:
		return "(u64, Vec<u8>)"
	default:
		return "()"
	}
}

// sortedFieldNames is used by tests to assert deterministic emission
// order without depending on map iteration anywhere in this package
// (there is none — Generate only ever walks coda.Types/dt.Fields
// slices in their declared order).
func sortedFieldNames(dt *schema.DataType) []string {
	names := make([]string, len(dt.Fields))
	for i, f := range dt.Fields {
		names[i] = f.Name
	}
	sort.Strings(names)
	return names
}
