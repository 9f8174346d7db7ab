package wire

import (
	"encoding/binary"
	"math"
)

// AppendBool appends a boolean as a single 0x00/0x01 byte.
func AppendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 0x01)
	}
	return append(buf, 0x00)
}

// Bool reads a boolean. Any nonzero byte decodes as true, per spec.
func (r *Reader) Bool() (bool, error) {
	b, err := r.Byte()
	if err != nil {
		return false, err
	}
	return b != 0x00, nil
}

// AppendFixed32 appends 4 raw little-endian bytes.
func AppendFixed32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// AppendFixed64 appends 8 raw little-endian bytes.
func AppendFixed64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

// AppendFloat32 appends a 4-byte IEEE-754 little-endian float.
func AppendFloat32(buf []byte, f float32) []byte {
	return AppendFixed32(buf, math.Float32bits(f))
}

// AppendFloat64 appends an 8-byte IEEE-754 little-endian float.
func AppendFloat64(buf []byte, f float64) []byte {
	return AppendFixed64(buf, math.Float64bits(f))
}

// Fixed32 reads 4 raw little-endian bytes.
func (r *Reader) Fixed32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Fixed64 reads 8 raw little-endian bytes.
func (r *Reader) Fixed64() (uint64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Float32 reads a 4-byte IEEE-754 little-endian float.
func (r *Reader) Float32() (float32, error) {
	bits, err := r.Fixed32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// Float64 reads an 8-byte IEEE-754 little-endian float.
func (r *Reader) Float64() (float64, error) {
	bits, err := r.Fixed64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// AppendText appends a length-prefixed UTF-8 text frame: an unsigned varint
// byte count followed by the text's bytes.
func AppendText(buf []byte, s string) []byte {
	buf = AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

// Text reads a length-prefixed UTF-8 text frame. The returned string is
// an independent copy, not an alias into the Reader's backing array:
// decoders copy text out of the input slice rather than holding onto it.
func (r *Reader) Text() (string, error) {
	n, err := r.Uvarint()
	if err != nil {
		return "", err
	}
	b, err := r.Bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// AppendListHeader appends the unsigned varint element count that precedes
// a list's encoded elements.
func AppendListHeader(buf []byte, count int) []byte {
	return AppendUvarint(buf, uint64(count))
}

// ListHeader reads a list's element count.
func (r *Reader) ListHeader() (int, error) {
	n, err := r.Uvarint()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// AppendMapHeader appends the unsigned varint pair count that precedes a
// map's encoded (key, value) pairs.
func AppendMapHeader(buf []byte, count int) []byte {
	return AppendUvarint(buf, uint64(count))
}

// MapHeader reads a map's pair count.
func (r *Reader) MapHeader() (int, error) {
	n, err := r.Uvarint()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

const (
	// OptionalAbsent is the presence tag for an absent optional value.
	OptionalAbsent = 0x00
	// OptionalPresent is the presence tag for a present optional value.
	OptionalPresent = 0x01
)

// AppendOptionalTag appends the one-byte optional presence tag.
func AppendOptionalTag(buf []byte, present bool) []byte {
	if present {
		return append(buf, OptionalPresent)
	}
	return append(buf, OptionalAbsent)
}

// OptionalTag reads the one-byte optional presence tag. Any nonzero byte is
// treated as present, mirroring boolean decoding.
func (r *Reader) OptionalTag() (bool, error) {
	b, err := r.Byte()
	if err != nil {
		return false, err
	}
	return b != OptionalAbsent, nil
}

// AppendLengthPrefixed appends payload preceded by its unsigned varint byte
// length, the framing used for every nested record and every envelope so a
// decoder that doesn't understand the payload can skip it.
func AppendLengthPrefixed(buf []byte, payload []byte) []byte {
	buf = AppendUvarint(buf, uint64(len(payload)))
	return append(buf, payload...)
}

// LengthPrefixed reads a length-prefixed payload and returns a Reader
// scoped to exactly that payload, plus the number of bytes the payload
// occupies on the wire (not counting the length prefix itself).
func (r *Reader) LengthPrefixed() (*Reader, int, error) {
	n, err := r.Uvarint()
	if err != nil {
		return nil, 0, err
	}
	b, err := r.Bytes(int(n))
	if err != nil {
		return nil, 0, err
	}
	return NewReader(b), int(n), nil
}
