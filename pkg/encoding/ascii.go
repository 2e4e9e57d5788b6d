// Package encoding provides text helpers for the ASCII headers of the
// exported file formats.
package encoding

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// HeaderText folds s into a single line of printable 7-bit ASCII.
// Accented letters lose their marks, other runes outside ASCII are dropped
// and line breaks become spaces.
func HeaderText(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(func(r rune) rune {
			if r == '\n' || r == '\r' || r == '\t' {
				return ' '
			}
			return r
		}),
		runes.Remove(runes.Predicate(func(r rune) bool {
			return r > unicode.MaxASCII || !unicode.IsPrint(r)
		})),
	)
	result, _, err := transform.String(t, s)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(result)
}

// IsHeaderToken reports whether s can be used as a header word: non-empty
// printable ASCII without whitespace.
func IsHeaderToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
