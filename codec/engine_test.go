package codec

import (
	"bytes"
	"testing"

	"github.com/codas/codas/schema"
	"github.com/codas/codas/wire"
)

const greeterDoc = "# `Greeter` Coda\n" +
	"\n" +
	"Coda covering a minimal request/response exchange.\n" +
	"\n" +
	"## `Request` Data\n" +
	"\n" +
	"+ `message` text\n" +
	"\n" +
	"## `Response` Data\n" +
	"\n" +
	"+ `message` text\n" +
	"+ `friends` list of text\n"

func greeterCoda(t *testing.T) *schema.Coda {
	t.Helper()
	coda, err := schema.Parse([]byte(greeterDoc))
	if err != nil {
		t.Fatalf("parsing fixture coda: %v", err)
	}
	return coda
}

// TestEnvelopeGreeterHello checks that the Request{message: "Hi!"}
// value, enveloped as ordinal 0, encodes to the exact 7-byte sequence
// 05 00 04 03 48 69 21.
func TestEnvelopeGreeterHello(t *testing.T) {
	coda := greeterCoda(t)
	req, _ := coda.DataType("Request")

	u := &Union{Coda: coda, Ordinal: req.Ordinal, Value: &Record{
		Type:   req,
		Fields: []Value{TextValue("Hi!")},
	}}

	got, err := EncodeEnvelope(u)
	if err != nil {
		t.Fatalf("EncodeEnvelope: %v", err)
	}
	want := []byte{0x05, 0x00, 0x04, 0x03, 0x48, 0x69, 0x21}
	if !bytes.Equal(got, want) {
		t.Fatalf("EncodeEnvelope = % x, want % x", got, want)
	}

	decoded, consumed, err := DecodeEnvelope(coda, got)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if consumed != len(want) {
		t.Fatalf("consumed = %d, want %d", consumed, len(want))
	}
	if decoded.Ordinal != req.Ordinal {
		t.Fatalf("ordinal = %d, want %d", decoded.Ordinal, req.Ordinal)
	}
	msg, ok := decoded.Value.Field("message")
	if !ok || msg.Text() != "Hi!" {
		t.Fatalf("message field = %+v, ok=%v", msg, ok)
	}
}

// TestEnvelopeUnknownVariantConsumesExactBytes checks that a coda which
// knows no data types still reports exactly how many bytes the
// unrecognized envelope occupied, so a following envelope is left
// untouched.
func TestEnvelopeUnknownVariantConsumesExactBytes(t *testing.T) {
	empty := &schema.Coda{Name: "Empty"}
	wire := []byte{0x05, 0x00, 0x04, 0x03, 0x48, 0x69, 0x21, 0xAA, 0xBB}

	_, consumed, err := DecodeEnvelope(empty, wire)
	var uv *ErrUnknownVariant
	if err == nil {
		t.Fatal("expected ErrUnknownVariant")
	}
	if !errorsAs(err, &uv) {
		t.Fatalf("err = %v, want *ErrUnknownVariant", err)
	}
	if uv.Ordinal != 0 {
		t.Fatalf("ordinal = %d, want 0", uv.Ordinal)
	}
	if consumed != 7 {
		t.Fatalf("consumed = %d, want 7", consumed)
	}
	if !bytes.Equal(wire[consumed:], []byte{0xAA, 0xBB}) {
		t.Fatalf("trailing bytes disturbed: % x", wire[consumed:])
	}
}

func errorsAs(err error, target **ErrUnknownVariant) bool {
	uv, ok := err.(*ErrUnknownVariant)
	if !ok {
		return false
	}
	*target = uv
	return true
}

// TestRecordRoundTrip exercises the bare write_data/read_data form
// (property 1: round-trip) across every field kind the Greeter coda
// exercises, including the nested list of text.
func TestRecordRoundTrip(t *testing.T) {
	coda := greeterCoda(t)
	resp, _ := coda.DataType("Response")

	rec := &Record{Type: resp, Fields: []Value{
		TextValue("hello"),
		ListValue([]Value{TextValue("Amy"), TextValue("Bo")}),
	}}

	data, err := EncodeRecord(rec)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	got, err := DecodeRecord(data, resp)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}

	msg, _ := got.Field("message")
	if msg.Text() != "hello" {
		t.Fatalf("message = %q", msg.Text())
	}
	friends, _ := got.Field("friends")
	if len(friends.List()) != 2 || friends.List()[0].Text() != "Amy" || friends.List()[1].Text() != "Bo" {
		t.Fatalf("friends = %+v", friends.List())
	}
}

// TestFieldAppendBackwardCompat reproduces property 2: data written by
// an older schema (fewer fields) still decodes cleanly against a newer
// schema that has appended a field, with the new field defaulting to
// its zero value.
func TestFieldAppendBackwardCompat(t *testing.T) {
	oldType := &schema.DataType{Name: "Response", Fields: []*schema.Field{
		{Name: "message", Type: schema.Text(), Ordinal: 0},
	}}
	newType := &schema.DataType{Name: "Response", Fields: []*schema.Field{
		{Name: "message", Type: schema.Text(), Ordinal: 0},
		{Name: "friends", Type: schema.List(schema.Text()), Ordinal: 1},
	}}

	oldData, err := EncodeRecord(&Record{Type: oldType, Fields: []Value{TextValue("hi")}})
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}

	got, err := DecodeRecord(oldData, newType)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	msg, _ := got.Field("message")
	if msg.Text() != "hi" {
		t.Fatalf("message = %q", msg.Text())
	}
	friends, _ := got.Field("friends")
	if len(friends.List()) != 0 {
		t.Fatalf("friends = %+v, want empty", friends.List())
	}
}

// TestFieldTruncateForwardCompat reproduces property 2 in the other
// direction: data written by a newer schema (an extra trailing field)
// still decodes against an older schema that only knows the first
// field, once the caller scopes the decode to an enclosing length
// prefix (here: a nested field).
func TestFieldTruncateForwardCompat(t *testing.T) {
	oldType := &schema.DataType{Name: "Response", Fields: []*schema.Field{
		{Name: "message", Type: schema.Text(), Ordinal: 0},
	}}
	newType := &schema.DataType{Name: "Response", Fields: []*schema.Field{
		{Name: "message", Type: schema.Text(), Ordinal: 0},
		{Name: "friends", Type: schema.List(schema.Text()), Ordinal: 1},
	}}
	holder := &schema.DataType{Name: "Holder", Fields: []*schema.Field{
		{Name: "inner", Type: schema.NestedRef("Response"), Ordinal: 0},
	}}
	holder.Fields[0].Type.Nested = newType

	newData, err := EncodeRecord(&Record{Type: holder, Fields: []Value{
		NestedValue(&Record{Type: newType, Fields: []Value{
			TextValue("hi"), ListValue([]Value{TextValue("Amy")}),
		}}),
	}})
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}

	oldHolder := &schema.DataType{Name: "Holder", Fields: []*schema.Field{
		{Name: "inner", Type: schema.NestedRef("Response"), Ordinal: 0},
	}}
	oldHolder.Fields[0].Type.Nested = oldType

	got, err := DecodeRecord(newData, oldHolder)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	inner, _ := got.Field("inner")
	msg, _ := inner.Record().Field("message")
	if msg.Text() != "hi" {
		t.Fatalf("message = %q", msg.Text())
	}
}

func TestOptionalAndDynamicRoundTrip(t *testing.T) {
	dt := &schema.DataType{Name: "Holder", Fields: []*schema.Field{
		{Name: "nickname", Type: schema.Optional(schema.Text()), Ordinal: 0},
		{Name: "blob", Type: schema.Dynamic(), Ordinal: 1},
	}}

	rec := &Record{Type: dt, Fields: []Value{
		PresentOptional(TextValue("Bo")),
		DynamicValue(7, []byte{0x01, 0x02, 0x03}),
	}}
	data, err := EncodeRecord(rec)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	got, err := DecodeRecord(data, dt)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	nick, _ := got.Field("nickname")
	if nick.Optional() == nil || nick.Optional().Text() != "Bo" {
		t.Fatalf("nickname = %+v", nick)
	}
	blob, _ := got.Field("blob")
	if blob.DynamicTypeID() != 7 || !bytes.Equal(blob.DynamicBytes(), []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("blob = %+v", blob)
	}
}

func TestValueOutOfRange(t *testing.T) {
	dt := &schema.DataType{Name: "Holder", Fields: []*schema.Field{
		{Name: "small", Type: schema.Unsigned(8), Ordinal: 0},
	}}
	_, err := EncodeRecord(&Record{Type: dt, Fields: []Value{Unsigned(1000)}})
	if _, ok := err.(*ErrValueOutOfRange); !ok {
		t.Fatalf("err = %v, want *ErrValueOutOfRange", err)
	}
}

func TestInvalidTextRejected(t *testing.T) {
	dt := &schema.DataType{Name: "Holder", Fields: []*schema.Field{
		{Name: "note", Type: schema.Text(), Ordinal: 0},
	}}
	data := append(wire.AppendUvarint(nil, 3), 0xFF, 0xFE, 0xFD)

	_, err := DecodeRecord(data, dt)
	if _, ok := err.(*ErrInvalidText); !ok {
		t.Fatalf("err = %v, want *ErrInvalidText", err)
	}
}

func TestDepthExceeded(t *testing.T) {
	self := &schema.DataType{Name: "Rec"}
	self.Fields = []*schema.Field{{Name: "next", Type: schema.NestedRef("Rec"), Ordinal: 0}}
	self.Fields[0].Type.Nested = self

	buf := wireLengthPrefixedChain(t, self, MaxDepth+2)
	_, err := DecodeRecord(buf, self)
	if _, ok := err.(*ErrDepthExceeded); !ok {
		t.Fatalf("err = %v, want *ErrDepthExceeded", err)
	}
}

// wireLengthPrefixedChain hand-builds depth nested "next" pointers worth
// of wire bytes (an empty leaf Rec{} has no declared fields on the wire,
// so each added layer is only its own length prefix).
func wireLengthPrefixedChain(t *testing.T, dt *schema.DataType, depth int) []byte {
	t.Helper()
	var payload []byte
	for i := 0; i < depth; i++ {
		payload = wireAppendLengthPrefixed(payload)
	}
	return payload
}

func wireAppendLengthPrefixed(inner []byte) []byte {
	out := make([]byte, 0, len(inner)+1)
	n := len(inner)
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if n == 0 {
			break
		}
	}
	return append(out, inner...)
}
