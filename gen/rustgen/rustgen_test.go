package rustgen

import (
	"strings"
	"testing"

	"github.com/codas/codas/schema"
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

func TestGenerateGreeter(t *testing.T) {
	coda, err := schema.Parse([]byte(greeterDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	src, err := Generate(coda)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, want := range []string{
		"pub mod greeter {",
		"pub struct Request {",
		"pub message: String,",
		"pub struct Response {",
		"pub friends: Vec<String>,",
		"pub enum Greeter {",
		"Request(Request),",
		"Response(Response),",
	} {
		if !strings.Contains(src, want) {
			t.Fatalf("generated source missing %q:\n%s", want, src)
		}
	}
}

// TestGenerateEmitsCodecMethods checks that every struct gets its own
// encode/decode pair and the union enum gets its own enveloped
// encode/decode, not just type definitions.
func TestGenerateEmitsCodecMethods(t *testing.T) {
	coda, err := schema.Parse([]byte(greeterDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	src, err := Generate(coda)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, want := range []string{
		"fn write_uvarint(buf: &mut Vec<u8>, mut x: u64) {",
		"fn read_uvarint(bytes: &[u8], pos: &mut usize) -> Result<u64, String> {",
		"fn write_varint(buf: &mut Vec<u8>, x: i64) {",
		"fn read_varint(bytes: &[u8], pos: &mut usize) -> Result<i64, String> {",
		"fn write_text(buf: &mut Vec<u8>, s: &str) {",
		"fn read_text(bytes: &[u8], pos: &mut usize) -> Result<String, String> {",
		"impl Request {",
		"impl Response {",
		"pub fn encode(&self) -> Vec<u8> {",
		"pub fn decode(bytes: &[u8]) -> Result<Self, String> {",
		"write_text(&mut buf, &self.message);",
		"impl Greeter {",
		"pub fn decode(bytes: &[u8]) -> Result<(Self, usize), String> {",
		"Request(v) => (0u64, v.encode()),",
		"Response(v) => (1u64, v.encode()),",
		"0 => Greeter::Request(Request::decode(payload)?),",
		"1 => Greeter::Response(Response::decode(payload)?),",
	} {
		if !strings.Contains(src, want) {
			t.Fatalf("generated source missing %q:\n%s", want, src)
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	coda, err := schema.Parse([]byte(greeterDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a, err := Generate(coda)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate(coda)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a != b {
		t.Fatal("Generate produced different output for the same schema")
	}
}

func TestRustTypeMapping(t *testing.T) {
	cases := []struct {
		t    schema.TypeRef
		want string
	}{
		{schema.Unsigned(8), "u8"},
		{schema.Signed(64), "i64"},
		{schema.Float(32), "f32"},
		{schema.Bool(), "bool"},
		{schema.Text(), "String"},
		{schema.List(schema.Text()), "Vec<String>"},
		{schema.Map(schema.Text(), schema.Unsigned(8)), "Vec<(String, u8)>"},
		{schema.Optional(schema.Text()), "Option<String>"},
		{schema.Dynamic(), "(u64, Vec<u8>)"},
	}
	for _, c := range cases {
		if got := rustType(c.t); got != c.want {
			t.Errorf("rustType(%v) = %q, want %q", c.t, got, c.want)
		}
	}
}

func TestReservedWordSuffixed(t *testing.T) {
	src := "# `X` Coda\n\n## `A` Data\n\n+ `type` text\n"
	coda, err := schema.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := Generate(coda)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(got, "pub type_: String,") {
		t.Fatalf("expected reserved word `type` suffixed, got:\n%s", got)
	}
}

func TestFieldOrderPreservedNotSorted(t *testing.T) {
	coda, err := schema.Parse([]byte(greeterDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	resp, _ := coda.DataType("Response")
	names := []string{resp.Fields[0].Name, resp.Fields[1].Name}
	if names[0] != "message" || names[1] != "friends" {
		t.Fatalf("declared order = %v", names)
	}
	if sorted := sortedFieldNames(resp); sorted[0] == names[0] && sorted[1] == names[1] {
		t.Skip("fixture happens to already be alphabetical; not a useful check here")
	}
}
