package detect

import (
	"strings"
	"unicode"
)

// text is a query normalized for whole-word matching: lowercase, every run of
// non-alphanumerics collapsed to one space, padded with a space on each side.
type text string

func normalize(s string) text {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return text(b.String())
}

// has reports whether term occurs in t as a whole word or word sequence.
func (t text) has(term string) bool {
	n := normalize(term)
	if n == " " || n == "" {
		return false
	}
	return strings.Contains(string(t), string(n))
}

// any returns the first term found in t.
func (t text) any(terms []string) (string, bool) {
	for _, term := range terms {
		if t.has(term) {
			return term, true
		}
	}
	return "", false
}

func (t text) empty() bool { return strings.TrimSpace(string(t)) == "" }
