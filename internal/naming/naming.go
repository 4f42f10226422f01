package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCaser capitalizes the first letter of a word without lowering the
// rest, so acronym-bearing segments like "APIKey" survive PascalCase intact.
var titleCaser = cases.Title(language.English, cases.NoLower)

// SnakeCase converts an identifier to snake_case following the legacy
// generator's boundary rules:
//   - a separator is inserted between a lowercase letter or digit and a
//     following uppercase letter ("petId" -> "pet_id", "addr2Line" -> "addr2_line")
//   - a separator is inserted before the last capital of an all-caps run when
//     it starts a new word ("HTTPResponse" -> "http_response")
//   - '.' is a segment boundary ("a.b" -> "a_b")
//   - '$' escapes to two underscores ("$ref" -> "__ref")
func SnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + 4)
	for i, r := range runes {
		switch {
		case r == '$':
			b.WriteString("__")
		case r == '.' || r == '-' || r == ' ' || r == '_':
			b.WriteByte('_')
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				switch {
				case unicode.IsLower(prev) || unicode.IsDigit(prev):
					b.WriteByte('_')
				case unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
					// End of an all-caps run: this capital opens a new word.
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PascalCase converts an identifier to UpperCamelCase. Words are split on
// non-alphanumeric characters; interior capitalization inside a word is kept
// so "getWidget" becomes "GetWidget", not "Getwidget".
func PascalCase(s string) string {
	parts := splitWords(s)
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(titleCaser.String(p))
	}
	return b.String()
}

// CamelCase converts an identifier to lowerCamelCase.
func CamelCase(s string) string {
	p := PascalCase(s)
	if p == "" {
		return p
	}
	runes := []rune(p)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func splitWords(s string) []string {
	var parts []string
	var cur strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
			continue
		}
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}
