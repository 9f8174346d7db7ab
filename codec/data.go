package codec

import (
	"fmt"

	"github.com/codas/codas/schema"
)

// Format tags whether a TypeRef's wire encoding is a fixed/varint-width
// blob with no header of its own, or a variable-length, self-delimiting
// value (text, list, map, optional, nested record, dynamic) — the same
// distinction original_source/codas/src/codec.rs's `Format` enum draws
// between `Format::Blob` and `Format::Data`, simplified to the two
// cases this wire grammar needs. This implementation does not carry
// over the original's 16-bit `DataHeader` accumulation (count, ordinal,
// blob/data byte totals): every structured value here already carries
// its own length or count prefix, so there is nothing left for a second
// header to accumulate.
type Format uint8

const (
	// FormatBlob values have a fixed or self-terminating encoding
	// (varint, fixed-width float, one byte) with no enclosing length
	// prefix of their own.
	FormatBlob Format = iota
	// FormatStructured values carry their own length or count prefix:
	// text, list, map, optional, nested records, and dynamic payloads.
	FormatStructured
)

func (f Format) String() string {
	if f == FormatStructured {
		return "structured"
	}
	return "blob"
}

// FormatOf reports t's wire Format.
func FormatOf(t schema.TypeRef) Format {
	switch t.Kind {
	case schema.KindUnsigned, schema.KindSigned, schema.KindFloat, schema.KindBool:
		return FormatBlob
	default:
		return FormatStructured
	}
}

// Encodable is satisfied by every value this package's WriteData
// entry point can serialize: a bare *Record (the field_payload-only
// form for a single known data type) or a coda-wide *Union (the
// enveloped, tagged form). Mirrors the original codas crate's
// Encodable trait split across its bare and enveloped writers
// (src/codec/encode.rs), adapted to Go's interface-dispatch idiom
// instead of a const-generic FORMAT field.
type Encodable interface {
	encodeData() ([]byte, error)
}

func (r *Record) encodeData() ([]byte, error) { return EncodeRecord(r) }
func (u *Union) encodeData() ([]byte, error)  { return EncodeEnvelope(u) }

// WriteData writes value's wire encoding: a single entry point that
// dispatches to the bare record form or the enveloped union form
// depending on what was passed.
func WriteData(value Encodable) ([]byte, error) {
	return value.encodeData()
}

// ReadData is the unified read side of WriteData. Pass a
// *schema.DataType to decode the bare field_payload form (DecodeRecord,
// the inverse of WriteData on a *Record); pass a *schema.Coda to decode
// one enveloped, tagged union (DecodeEnvelope, the inverse of WriteData
// on a *Union). consumed is -1 for the bare form, which has no length
// prefix of its own to report against — the caller is expected to have
// already scoped data to the right boundary (e.g. from an enclosing
// nested-record length prefix).
func ReadData(target any, data []byte) (value any, consumed int, err error) {
	switch s := target.(type) {
	case *schema.DataType:
		rec, err := DecodeRecord(data, s)
		if err != nil {
			return nil, -1, err
		}
		return rec, -1, nil
	case *schema.Coda:
		u, consumed, err := DecodeEnvelope(s, data)
		if err != nil {
			return nil, consumed, err
		}
		return u, consumed, nil
	default:
		return nil, 0, fmt.Errorf("codec: ReadData: unsupported schema type %T", target)
	}
}
