package codec

import (
	"unicode/utf8"

	"github.com/codas/codas/schema"
	"github.com/codas/codas/wire"
)

// MaxDepth bounds decode recursion through nested/list/map/optional
// type refs, guarding against cyclic or pathologically deep schemas.
const MaxDepth = 64

// EncodeRecord writes rec's fields in declared order, producing the
// bare field_payload form: no outer length prefix, no ordinal. This is
// the form write_data uses for a single known data type, and it is
// also what a nested DataType field's length prefix wraps.
func EncodeRecord(rec *Record) ([]byte, error) {
	var buf []byte
	var err error
	for i, f := range rec.Type.Fields {
		buf, err = encodeValue(buf, f.Type, rec.Fields[i], f.Name)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// DecodeRecord reads dt's known fields, in declared order, from data.
// If data runs out before every known field has been read, the
// remaining fields default to zero/empty/false/absent — decoding data
// written by an older schema with fewer fields. Any bytes in data left
// over after dt's known fields have been read are simply not consumed:
// callers that scope data to an enclosing length prefix get forward
// compatibility with newer schemas for free.
func DecodeRecord(data []byte, dt *schema.DataType) (*Record, error) {
	return decodeRecordFrom(wire.NewReader(data), dt, 0)
}

func decodeRecordFrom(r *wire.Reader, dt *schema.DataType, depth int) (*Record, error) {
	rec := &Record{Type: dt, Fields: make([]Value, len(dt.Fields))}
	for i, f := range dt.Fields {
		if r.Len() == 0 {
			rec.Fields[i] = zeroValue(f.Type)
			continue
		}
		v, err := decodeValue(r, f.Type, depth, f.Name)
		if err != nil {
			return nil, err
		}
		rec.Fields[i] = v
	}
	return rec, nil
}

// EncodeEnvelope writes the coda-wide tagged-union form: a length
// prefix covering the value encoding, the data type's ordinal, and
// then the value encoding itself (the record's own standard
// length-prefix plus its field payload — top-level envelopes are also
// length-prefixed, layered on top of the record's own prefix rather
// than replacing it).
func EncodeEnvelope(u *Union) ([]byte, error) {
	fieldPayload, err := EncodeRecord(u.Value)
	if err != nil {
		return nil, err
	}
	valueEncoding := wire.AppendLengthPrefixed(nil, fieldPayload)

	buf := wire.AppendUvarint(nil, uint64(len(valueEncoding)))
	buf = wire.AppendUvarint(buf, uint64(u.Ordinal))
	buf = append(buf, valueEncoding...)
	return buf, nil
}

// DecodeEnvelope reads one envelope from the front of data and reports
// how many bytes it occupied, so callers can advance past it — even on
// ErrUnknownVariant, where consumed is still exact, letting a caller
// skip an envelope for a variant it doesn't recognize and keep reading.
func DecodeEnvelope(coda *schema.Coda, data []byte) (u *Union, consumed int, err error) {
	r := wire.NewReader(data)

	n, err := r.Uvarint()
	if err != nil {
		return nil, 0, err
	}
	ordU, err := r.Uvarint()
	if err != nil {
		return nil, 0, err
	}
	if int(n) > r.Len() {
		return nil, 0, &ErrLengthMismatch{Declared: int(n), Available: r.Len()}
	}
	valueEncoding, err := r.Bytes(int(n))
	if err != nil {
		return nil, 0, err
	}
	consumed = r.Pos()

	ordinal := int(ordU)
	vr := wire.NewReader(valueEncoding)
	payload, _, err := vr.LengthPrefixed()
	if err != nil {
		return nil, consumed, err
	}

	dt, ok := coda.ByOrdinal(ordinal)
	if !ok {
		return nil, consumed, &ErrUnknownVariant{Ordinal: ordinal}
	}
	rec, err := decodeRecordFrom(payload, dt, 0)
	if err != nil {
		return nil, consumed, err
	}
	return &Union{Coda: coda, Ordinal: ordinal, Value: rec}, consumed, nil
}

func encodeValue(buf []byte, t schema.TypeRef, v Value, fieldName string) ([]byte, error) {
	switch t.Kind {
	case schema.KindUnsigned:
		if !fitsUnsigned(t.Width, v.Uint()) {
			return nil, &ErrValueOutOfRange{Field: fieldName, Width: t.Width}
		}
		return wire.AppendUvarint(buf, v.Uint()), nil

	case schema.KindSigned:
		if !fitsSigned(t.Width, v.Int()) {
			return nil, &ErrValueOutOfRange{Field: fieldName, Width: t.Width}
		}
		return wire.AppendVarint(buf, v.Int()), nil

	case schema.KindFloat:
		if t.Width == 32 {
			return wire.AppendFloat32(buf, float32(v.Float())), nil
		}
		return wire.AppendFloat64(buf, v.Float()), nil

	case schema.KindBool:
		return wire.AppendBool(buf, v.Bool()), nil

	case schema.KindText:
		return wire.AppendText(buf, v.Text()), nil

	case schema.KindNested:
		payload, err := EncodeRecord(v.Record())
		if err != nil {
			return nil, err
		}
		return wire.AppendLengthPrefixed(buf, payload), nil

	case schema.KindList:
		elems := v.List()
		buf = wire.AppendListHeader(buf, len(elems))
		var err error
		for _, elem := range elems {
			buf, err = encodeValue(buf, *t.Elem, elem, fieldName)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil

	case schema.KindMap:
		pairs := v.Map()
		buf = wire.AppendMapHeader(buf, len(pairs))
		var err error
		for _, pair := range pairs {
			buf, err = encodeValue(buf, *t.Key, pair.Key, fieldName)
			if err != nil {
				return nil, err
			}
			buf, err = encodeValue(buf, *t.Value, pair.Value, fieldName)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil

	case schema.KindOptional:
		present := v.Optional() != nil
		buf = wire.AppendOptionalTag(buf, present)
		if !present {
			return buf, nil
		}
		return encodeValue(buf, *t.Elem, *v.Optional(), fieldName)

	case schema.KindDynamic:
		buf = wire.AppendUvarint(buf, v.DynamicTypeID())
		return wire.AppendLengthPrefixed(buf, v.DynamicBytes()), nil

	default:
		return buf, nil
	}
}

func decodeValue(r *wire.Reader, t schema.TypeRef, depth int, fieldName string) (Value, error) {
	if depth > MaxDepth {
		return Value{}, &ErrDepthExceeded{Limit: MaxDepth}
	}

	switch t.Kind {
	case schema.KindUnsigned:
		x, err := r.Uvarint()
		if err != nil {
			return Value{}, err
		}
		if !fitsUnsigned(t.Width, x) {
			return Value{}, &ErrValueOutOfRange{Field: fieldName, Width: t.Width}
		}
		return Unsigned(x), nil

	case schema.KindSigned:
		x, err := r.Varint()
		if err != nil {
			return Value{}, err
		}
		if !fitsSigned(t.Width, x) {
			return Value{}, &ErrValueOutOfRange{Field: fieldName, Width: t.Width}
		}
		return Signed(x), nil

	case schema.KindFloat:
		if t.Width == 32 {
			f, err := r.Float32()
			if err != nil {
				return Value{}, err
			}
			return FloatValue(float64(f)), nil
		}
		f, err := r.Float64()
		if err != nil {
			return Value{}, err
		}
		return FloatValue(f), nil

	case schema.KindBool:
		b, err := r.Bool()
		if err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil

	case schema.KindText:
		s, err := r.Text()
		if err != nil {
			return Value{}, err
		}
		if !utf8.ValidString(s) {
			return Value{}, &ErrInvalidText{Len: len(s)}
		}
		return TextValue(s), nil

	case schema.KindNested:
		scoped, _, err := r.LengthPrefixed()
		if err != nil {
			return Value{}, err
		}
		rec, err := decodeRecordFrom(scoped, t.Nested, depth+1)
		if err != nil {
			return Value{}, err
		}
		return NestedValue(rec), nil

	case schema.KindList:
		n, err := r.ListHeader()
		if err != nil {
			return Value{}, err
		}
		elems := make([]Value, 0, n)
		for i := 0; i < n; i++ {
			elem, err := decodeValue(r, *t.Elem, depth+1, fieldName)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, elem)
		}
		return ListValue(elems), nil

	case schema.KindMap:
		n, err := r.MapHeader()
		if err != nil {
			return Value{}, err
		}
		pairs := make([]MapEntry, 0, n)
		for i := 0; i < n; i++ {
			key, err := decodeValue(r, *t.Key, depth+1, fieldName)
			if err != nil {
				return Value{}, err
			}
			val, err := decodeValue(r, *t.Value, depth+1, fieldName)
			if err != nil {
				return Value{}, err
			}
			pairs = append(pairs, MapEntry{Key: key, Value: val})
		}
		return MapValue(pairs), nil

	case schema.KindOptional:
		present, err := r.OptionalTag()
		if err != nil {
			return Value{}, err
		}
		if !present {
			return AbsentOptional(), nil
		}
		inner, err := decodeValue(r, *t.Elem, depth+1, fieldName)
		if err != nil {
			return Value{}, err
		}
		return PresentOptional(inner), nil

	case schema.KindDynamic:
		typeID, err := r.Uvarint()
		if err != nil {
			return Value{}, err
		}
		scoped, n, err := r.LengthPrefixed()
		if err != nil {
			return Value{}, err
		}
		raw, err := scoped.Bytes(n)
		if err != nil {
			return Value{}, err
		}
		return DynamicValue(typeID, raw), nil

	default:
		return Value{}, nil
	}
}

func fitsUnsigned(width int, v uint64) bool {
	if width >= 64 {
		return true
	}
	return v < uint64(1)<<uint(width)
}

func fitsSigned(width int, v int64) bool {
	if width >= 64 {
		return true
	}
	lo := -(int64(1) << uint(width-1))
	hi := int64(1)<<uint(width-1) - 1
	return v >= lo && v <= hi
}
