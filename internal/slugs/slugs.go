// Package slugs derives identifiers from user-entered names: URL-safe
// slugs for project names and the short uppercase codes used as ticket
// prefixes.
package slugs

import (
	"strings"
	"unicode"

	goslug "github.com/gosimple/slug"
)

// maxCodeLength bounds project short codes; ticket IDs read like "PRJ-4".
const maxCodeLength = 4

// NameSlug converts a project name to a URL-safe slug.
func NameSlug(s string) string {
	slugged := goslug.Make(s)
	if slugged == "" {
		slugged = strings.ToLower(strings.ReplaceAll(s, " ", "-"))
	}
	return slugged
}

// ShortCode derives an uppercase ticket prefix from a project name.
// Multi-word names contribute their initials ("Fancy Project" -> "FP"),
// single words are truncated ("Iguana" -> "IGUA"). The result is empty
// when the name has no ASCII letters or digits; callers must then ask
// for an explicit code.
func ShortCode(name string) string {
	words := strings.FieldsFunc(NameSlug(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return ""
	}

	var code string
	if len(words) == 1 {
		code = words[0]
	} else {
		for _, w := range words {
			code += w[:1]
		}
	}
	if len(code) > maxCodeLength {
		code = code[:maxCodeLength]
	}
	return strings.ToUpper(code)
}

// ValidCode reports whether s is usable as a project short code:
// one to four ASCII letters.
func ValidCode(s string) bool {
	if len(s) < 1 || len(s) > maxCodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}
