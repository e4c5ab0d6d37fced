package translate

import (
	"regexp"
	"strings"
)

// translationPrefix matches conversational lead-ins the model sometimes
// prepends to a plain-text translation.
var translationPrefix = regexp.MustCompile(`(?i)^\s*(?:translation|tradu[çc][ãa]o|translated text|here(?:'s| is) the translation)\s*:\s*`)

// ordinalPrefix matches the "1." / "1)" numbering of list responses.
var ordinalPrefix = regexp.MustCompile(`^\s*\d+\s*[\.\)\:]\s*`)

// skipPatterns match whole lines that are model commentary rather than
// translations, and get dropped during response cleaning.
var skipPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(?:here (?:are|is)|these are|below (?:are|is))\b.*:?\s*$`),
	regexp.MustCompile(`(?i)^\s*(?:translations?|translated lines?)\s*:?\s*$`),
	regexp.MustCompile(`(?i)^\s*(?:note|nota|observa[çc][ãa]o)\s*:`),
	regexp.MustCompile(`(?i)^\s*(?:i (?:have|'ve) translated|as requested|let me know)\b`),
	regexp.MustCompile(`^\s*-{3,}\s*$`),
	regexp.MustCompile("^\\s*```"),
}

// CleanResponse turns a raw numbered-list response into a slice of
// translation strings. Commentary lines are dropped, ordinals stripped,
// surrounding whitespace trimmed. Lines without numbering still count as
// translations, so a model that forgets the numbers is tolerated.
func CleanResponse(raw string) []string {
	var out []string

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if isCommentary(line) {
			continue
		}

		line = ordinalPrefix.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		out = append(out, line)
	}

	return out
}

func isCommentary(line string) bool {
	for _, p := range skipPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// Reconcile aligns a cleaned response with the input fragments. The result
// always has exactly len(originals) entries in input order: missing tail
// entries and empty translations fall back to the original fragment, extra
// entries are discarded.
func Reconcile(translations, originals []string) []string {
	out := make([]string, len(originals))

	for i := range originals {
		if i < len(translations) && strings.TrimSpace(translations[i]) != "" {
			out[i] = translations[i]
		} else {
			out[i] = originals[i]
		}
	}

	return out
}
