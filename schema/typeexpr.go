package schema

import "fmt"

// tokCursor is a minimal single-pass cursor over a type expression's
// whitespace-separated tokens, used by parseTypeExpr's recursive descent.
type tokCursor struct {
	toks []string
	pos  int
}

func (c *tokCursor) done() bool { return c.pos >= len(c.toks) }

func (c *tokCursor) next() (string, bool) {
	if c.done() {
		return "", false
	}
	t := c.toks[c.pos]
	c.pos++
	return t, true
}

func (c *tokCursor) expect(word string) error {
	t, ok := c.next()
	if !ok {
		return fmt.Errorf("expected %q, got end of type expression", word)
	}
	if t != word {
		return fmt.Errorf("expected %q, got %q", word, t)
	}
	return nil
}

var fixedWidths = map[string]struct {
	kind  TypeKind
	width int
}{
	"u8": {KindUnsigned, 8}, "u16": {KindUnsigned, 16}, "u32": {KindUnsigned, 32}, "u64": {KindUnsigned, 64},
	"i8": {KindSigned, 8}, "i16": {KindSigned, 16}, "i32": {KindSigned, 32}, "i64": {KindSigned, 64},
	"f32": {KindFloat, 32}, "f64": {KindFloat, 64},
}

// isIdent reports whether s is a valid coda identifier: starts with a
// letter or underscore, continues with letters, digits, or underscores.
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		alpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		digit := r >= '0' && r <= '9'
		if i == 0 && !alpha {
			return false
		}
		if !alpha && !digit {
			return false
		}
	}
	return true
}

// parseTypeExpr parses a TypeExpr per the coda grammar:
//
//	TypeExpr := 'u8'|'u16'|…|'f64'|'bool'|'text'|Ident
//	          | 'list' 'of' TypeExpr
//	          | 'map' 'of' TypeExpr 'to' TypeExpr
//	          | 'optional' TypeExpr
//	          | 'unspecified'
func parseTypeExpr(c *tokCursor) (TypeRef, error) {
	tok, ok := c.next()
	if !ok {
		return TypeRef{}, fmt.Errorf("missing type expression")
	}

	switch tok {
	case "bool":
		return Bool(), nil
	case "text":
		return Text(), nil
	case "unspecified":
		return Dynamic(), nil
	case "list":
		if err := c.expect("of"); err != nil {
			return TypeRef{}, err
		}
		elem, err := parseTypeExpr(c)
		if err != nil {
			return TypeRef{}, err
		}
		return List(elem), nil
	case "map":
		if err := c.expect("of"); err != nil {
			return TypeRef{}, err
		}
		key, err := parseTypeExpr(c)
		if err != nil {
			return TypeRef{}, err
		}
		if err := c.expect("to"); err != nil {
			return TypeRef{}, err
		}
		value, err := parseTypeExpr(c)
		if err != nil {
			return TypeRef{}, err
		}
		return Map(key, value), nil
	case "optional":
		inner, err := parseTypeExpr(c)
		if err != nil {
			return TypeRef{}, err
		}
		return Optional(inner), nil
	}

	if fw, ok := fixedWidths[tok]; ok {
		return TypeRef{Kind: fw.kind, Width: fw.width}, nil
	}

	if !isIdent(tok) {
		return TypeRef{}, fmt.Errorf("unknown type keyword %q", tok)
	}
	return NestedRef(tok), nil
}
