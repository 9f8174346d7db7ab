package gen

import "strings"

// PascalCase renders name (expected to already be a coda identifier,
// e.g. "Request" or "userID") as UpperCamelCase, splitting on
// underscores, hyphens and spaces in addition to existing case
// boundaries. Only each word's first letter is upper-cased and the rest
// keeps its case, so "user_id" renders as "UserId" and "userID" as
// "UserID".
func PascalCase(name string) string {
	parts := splitWords(name)
	var sb strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(p[:1]))
		sb.WriteString(p[1:])
	}
	return sb.String()
}

// CamelCase renders name as lowerCamelCase.
func CamelCase(name string) string {
	p := PascalCase(name)
	if p == "" {
		return p
	}
	return strings.ToLower(p[:1]) + p[1:]
}

// SnakeCase renders name as snake_case.
func SnakeCase(name string) string {
	return strings.ToLower(strings.Join(splitWords(name), "_"))
}

// splitWords breaks an identifier into words on underscores, hyphens,
// and camel-case boundaries.
func splitWords(name string) []string {
	var words []string
	var cur strings.Builder
	runes := []rune(name)
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case i > 0 && isUpper(r) && !isUpper(runes[i-1]):
			flush()
			cur.WriteRune(r)
		case i > 0 && isUpper(r) && isUpper(runes[i-1]) && i+1 < len(runes) && !isUpper(runes[i+1]):
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }

// Reserve maps name through keywords, appending an underscore suffix
// if it collides with one of the target language's reserved words.
func Reserve(name string, keywords map[string]bool) string {
	if keywords[name] {
		return name + "_"
	}
	return name
}
