package srt

import (
	"regexp"
	"strconv"
	"strings"
)

// Markup substitution patterns, tried most-specific first. The capture
// groups are (prefix)(text)(suffix); only the text group is replaced, so tag
// syntax and attributes come through byte-identical.
var (
	// <font ...><b ...>{...}<font ...>text</font>{...}</b></font>
	boldFontFull = regexp.MustCompile(`(?is)(<font[^>]*><b[^>]*>(?:\{[^}]*\})*(?:<font[^>]*>)?)(.*?)((?:</font>)?(?:\{[^}]*\})*</b></font>)`)
	// <font ...><b ...>{...}text{...}</b></font>
	boldFontSimple = regexp.MustCompile(`(?is)(<font[^>]*><b[^>]*>(?:\{[^}]*\})*)(.*?)((?:\{[^}]*\})*</b></font>)`)
	// <font ...>text</font>
	fontOnly = regexp.MustCompile(`(?is)(<font[^>]*>)(.*?)(</font>)`)
)

// Reconstruct reinserts translated fragments into the document described by
// the structure map. Blocks without translatable text are emitted verbatim;
// so is any block whose fragment index falls outside the translation list,
// which should not happen given the invoker's length postcondition but must
// not take the document down if it does.
func Reconstruct(translations []string, sm StructureMap) string {
	blocks := make([]string, 0, len(sm))

	for _, b := range sm {
		if !b.HasText {
			blocks = append(blocks, b.Raw)
			continue
		}
		if b.FragmentIndex < 0 || b.FragmentIndex >= len(translations) {
			blocks = append(blocks, b.Raw)
			continue
		}

		translated := translations[b.FragmentIndex]
		header := strconv.Itoa(b.SequenceNumber) + "\n" + b.Timing + "\n"

		if strings.Contains(strings.ToLower(b.Content), "<font") {
			blocks = append(blocks, header+substituteMarkup(b.Content, translated))
		} else {
			blocks = append(blocks, header+translated)
		}
	}

	return strings.Join(blocks, "\n\n")
}

// substituteMarkup replaces only the text span inside content's markup,
// preferring the bold-inside-font patterns, then a bare font pair, then a
// plain substring replacement of the stripped text.
func substituteMarkup(content, translated string) string {
	stripped := tagRe.ReplaceAllString(content, "")
	stripped = braceRe.ReplaceAllString(stripped, "")
	stripped = collapseSpace(stripped)
	if stripped == "" {
		return content
	}

	if strings.Contains(strings.ToLower(content), "<b>") {
		if m := boldFontFull.FindStringSubmatch(content); m != nil {
			return m[1] + translated + m[3]
		}
		if m := boldFontSimple.FindStringSubmatch(content); m != nil {
			return m[1] + translated + m[3]
		}
		return strings.Replace(content, stripped, translated, 1)
	}

	if loc := fontOnly.FindStringSubmatchIndex(content); loc != nil {
		prefix := content[loc[2]:loc[3]]
		middle := content[loc[4]:loc[5]]
		suffix := content[loc[6]:loc[7]]

		replaced := prefix + translated + suffix
		if strings.Contains(middle, "<") {
			// Nested tags inside the font pair: keep them and swap only the
			// visible text.
			clean := tagRe.ReplaceAllString(middle, "")
			clean = strings.TrimSpace(braceRe.ReplaceAllString(clean, ""))
			if clean != "" {
				replaced = prefix + strings.Replace(middle, clean, translated, 1) + suffix
			}
		}
		return content[:loc[0]] + replaced + content[loc[1]:]
	}

	return strings.Replace(content, stripped, translated, 1)
}
