// Package names canonicalizes entity names used as metric label values.
package names

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Unknown is the label used when no name is available.
const Unknown = "unknown"

// Normalize turns "red_potion" into "Red Potion". Empty input yields Unknown.
func Normalize(raw string) string {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "_", " "))
	if s == "" || s == Unknown {
		return Unknown
	}
	return title(s)
}

// title upper-cases the first letter of every word and lower-cases the rest.
// A word starts after any non-letter, so "goblin's" becomes "Goblin'S".
func title(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToTitle(r))
			}
			prevLetter = true
			continue
		}
		prevLetter = false
		b.WriteRune(r)
	}
	return b.String()
}
