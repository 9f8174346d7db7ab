// Package codec implements the codas wire codec engine: encoding and
// decoding of schema-described values on top of the wire primitives in
// package wire.
package codec

import "github.com/codas/codas/schema"

// MapEntry is one (key, value) pair of a Map-kinded Value. Encoding
// order is insertion order, which this implementation chose and
// documents for map types with no ordering semantics of their own.
type MapEntry struct {
	Key   Value
	Value Value
}

// Value is a dynamic, schema-typed value: the in-memory form the codec
// engine encodes to and decodes from the wire. It mirrors the TypeRef
// variants in package schema field for field.
type Value struct {
	kind schema.TypeKind

	u uint64
	i int64
	f float64
	b bool
	s string

	record *Record
	list   []Value
	pairs  []MapEntry
	opt    *Value

	dynTypeID uint64
	dynBytes  []byte
}

// Kind reports which TypeRef variant this value carries.
func (v Value) Kind() schema.TypeKind { return v.kind }

// Unsigned builds an unsigned-integer Value.
func Unsigned(x uint64) Value { return Value{kind: schema.KindUnsigned, u: x} }

// Signed builds a signed-integer Value.
func Signed(x int64) Value { return Value{kind: schema.KindSigned, i: x} }

// FloatValue builds a floating-point Value.
func FloatValue(x float64) Value { return Value{kind: schema.KindFloat, f: x} }

// BoolValue builds a boolean Value.
func BoolValue(x bool) Value { return Value{kind: schema.KindBool, b: x} }

// TextValue builds a text Value.
func TextValue(x string) Value { return Value{kind: schema.KindText, s: x} }

// NestedValue builds a Value wrapping a nested Record.
func NestedValue(rec *Record) Value { return Value{kind: schema.KindNested, record: rec} }

// ListValue builds a list Value.
func ListValue(elems []Value) Value { return Value{kind: schema.KindList, list: elems} }

// MapValue builds a map Value from ordered entries.
func MapValue(entries []MapEntry) Value { return Value{kind: schema.KindMap, pairs: entries} }

// AbsentOptional builds an absent optional Value.
func AbsentOptional() Value { return Value{kind: schema.KindOptional} }

// PresentOptional builds a present optional Value wrapping inner.
func PresentOptional(inner Value) Value { return Value{kind: schema.KindOptional, opt: &inner} }

// DynamicValue builds an opaque "unspecified"-typed Value, round-tripped
// as raw bytes tagged with typeID (see DESIGN.md for the wire framing
// this implementation defines for the dynamic type).
func DynamicValue(typeID uint64, raw []byte) Value {
	return Value{kind: schema.KindDynamic, dynTypeID: typeID, dynBytes: raw}
}

func (v Value) Uint() uint64         { return v.u }
func (v Value) Int() int64           { return v.i }
func (v Value) Float() float64       { return v.f }
func (v Value) Bool() bool           { return v.b }
func (v Value) Text() string         { return v.s }
func (v Value) Record() *Record      { return v.record }
func (v Value) List() []Value        { return v.list }
func (v Value) Map() []MapEntry      { return v.pairs }
func (v Value) Optional() *Value     { return v.opt }
func (v Value) DynamicTypeID() uint64 { return v.dynTypeID }
func (v Value) DynamicBytes() []byte  { return v.dynBytes }

// Record is a decoded or to-be-encoded instance of a schema.DataType:
// field values in declared (wire) order.
type Record struct {
	Type   *schema.DataType
	Fields []Value
}

// Field looks up a field value by name.
func (r *Record) Field(name string) (Value, bool) {
	f, ok := r.Type.Field(name)
	if !ok {
		return Value{}, false
	}
	return r.Fields[f.Ordinal], true
}

// Union is a coda-wide tagged value: the envelope form's decoded payload,
// naming which data type (by ordinal) the record belongs to.
type Union struct {
	Coda    *schema.Coda
	Ordinal int
	Value   *Record
}

// zeroValue returns the default value for t, used when a decoder reaches
// the end of a record's available bytes before exhausting its known
// field list: fields that the writer's older schema did not have yet
// default to zero/empty/false/absent.
func zeroValue(t schema.TypeRef) Value {
	switch t.Kind {
	case schema.KindUnsigned:
		return Unsigned(0)
	case schema.KindSigned:
		return Signed(0)
	case schema.KindFloat:
		return FloatValue(0)
	case schema.KindBool:
		return BoolValue(false)
	case schema.KindText:
		return TextValue("")
	case schema.KindNested:
		return NestedValue(zeroRecord(t.Nested))
	case schema.KindList:
		return ListValue(nil)
	case schema.KindMap:
		return MapValue(nil)
	case schema.KindOptional:
		return AbsentOptional()
	case schema.KindDynamic:
		return DynamicValue(0, nil)
	default:
		return Value{}
	}
}

func zeroRecord(dt *schema.DataType) *Record {
	fields := make([]Value, len(dt.Fields))
	for i, f := range dt.Fields {
		fields[i] = zeroValue(f.Type)
	}
	return &Record{Type: dt, Fields: fields}
}
