// Package guard protects proper nouns from mistranslation on the plain-text
// path. Capitalized spans are wrapped in double quotes before submission so
// the backend treats them as untranslatable names, and the quotes are removed
// again afterwards, but only where the enclosed content still looks like a
// machine-wrapped name, so author-original quotations survive untouched.
//
// This is a heuristic, not a guarantee: if the backend rewrites a protected
// span, its quotes are deliberately left in place rather than risk stripping
// a genuine quotation.
package guard

import "regexp"

// properNoun matches 1–3 consecutive capitalized words ("John", "New York",
// "Jean Pierre Polnareff").
var properNoun = regexp.MustCompile(`\b[A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+){0,2}\b`)

// wrappedName matches a quoted span that is purely capitalized alphabetic
// words, the shape Protect produces, as opposed to ordinary quoted speech.
var wrappedName = regexp.MustCompile(`^[A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)*$`)

var quoted = regexp.MustCompile(`"([^"]+)"`)

// Protect wraps each unguarded capitalized span in double quotes and returns
// the marked text together with the start offsets (in the original text) of
// the spans that were wrapped. Spans preceded by an odd number of quote
// characters are already inside a quotation and are left alone.
func Protect(text string) (string, []int) {
	var positions []int

	matches := properNoun.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var out []byte
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]

		if quoteCount(text[:start])%2 == 1 {
			continue
		}

		out = append(out, text[last:start]...)
		out = append(out, '"')
		out = append(out, text[start:end]...)
		out = append(out, '"')
		last = end
		positions = append(positions, start)
	}
	out = append(out, text[last:]...)

	return string(out), positions
}

// Unprotect removes quote pairs whose content is still a bare capitalized
// word sequence. Quotes around anything else, including protected spans the
// backend altered, are kept. The positions recorded by Protect are advisory;
// after translation the text has shifted, so removal is decided purely by
// content shape.
func Unprotect(text string, _ []int) string {
	return quoted.ReplaceAllStringFunc(text, func(match string) string {
		inner := match[1 : len(match)-1]
		if wrappedName.MatchString(inner) {
			return inner
		}
		return match
	})
}

func quoteCount(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			n++
		}
	}
	return n
}
