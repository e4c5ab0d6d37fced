// Package srt implements parsing and rebuilding of SubRip subtitle documents
// for translation. Parsing splits a document into timed blocks, pulls the
// translatable text out of each block's markup, and records enough structure
// to put translated text back without disturbing tags, timing, or control
// codes.
package srt

import (
	"regexp"
	"strconv"
	"strings"
)

// Block represents one timed caption unit and the reconstruction context
// for it.
type Block struct {
	// SequenceNumber is the block's numbering as parsed from its first line.
	SequenceNumber int
	// Timing is the validated timestamp-range line, trimmed.
	Timing string
	// Content is the block's content lines joined with newlines, markup
	// included.
	Content string
	// Raw is the full original block, preserved verbatim for blocks that
	// pass through untranslated.
	Raw string
	// HasText reports whether the block yielded a translatable fragment.
	HasText bool
	// FragmentIndex is the block's position in the extracted fragment list,
	// or -1 when HasText is false.
	FragmentIndex int
}

// StructureMap is the ordered record of all blocks in a document, one entry
// per block in document order. It is the sole owner of reconstruction
// context; fragments themselves are plain strings.
type StructureMap []*Block

var (
	blockSep  = regexp.MustCompile(`\n\s*\n`)
	timingRe  = regexp.MustCompile(`^\d{2}:\d{2}:\d{2},\d{3}\s*-->\s*\d{2}:\d{2}:\d{2},\d{3}`)
	tagRe     = regexp.MustCompile(`<[^>]+>`)
	braceRe   = regexp.MustCompile(`\{[^}]*\}`)
	spaceRe   = regexp.MustCompile(`\s+`)
	fontOpen  = regexp.MustCompile(`(?i)<font[^>]*>`)
	docShape  = regexp.MustCompile(`\d+\n\d{2}:\d{2}:\d{2},\d{3}\s*-->\s*\d{2}:\d{2}:\d{2},\d{3}`)
)

// IsDocument reports whether text has subtitle-block shape (a numbered block
// followed by a timestamp range). Documents that fail this check are
// translated through the plain-text path instead.
func IsDocument(text string) bool {
	return docShape.MatchString(text)
}

// Parse splits a subtitle document into blocks and extracts one translatable
// fragment per block that contains text. Malformed blocks (missing lines,
// non-numeric numbering, bad timestamps) are silently dropped: trailing junk
// is common in subtitle files and is not worth failing a whole document for.
//
// The returned fragment list is index-aligned with the FragmentIndex fields
// in the structure map.
func Parse(document string) ([]string, StructureMap) {
	var fragments []string
	var sm StructureMap

	for _, raw := range blockSep.Split(strings.TrimSpace(document), -1) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		lines := strings.Split(raw, "\n")
		if len(lines) < 2 {
			continue
		}

		seq, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil || seq <= 0 {
			continue
		}

		timing := strings.TrimSpace(lines[1])
		if !timingRe.MatchString(timing) {
			continue
		}

		content := ""
		if len(lines) > 2 {
			content = strings.TrimSpace(strings.Join(lines[2:], "\n"))
		}

		block := &Block{
			SequenceNumber: seq,
			Timing:         timing,
			Content:        content,
			Raw:            raw,
			FragmentIndex:  -1,
		}
		sm = append(sm, block)

		if content == "" {
			continue
		}

		text := extractText(content)
		if len(text) < 2 {
			continue
		}

		block.HasText = true
		block.FragmentIndex = len(fragments)
		fragments = append(fragments, text)
	}

	return fragments, sm
}

// extractText pulls the plain translatable text out of a block's content.
// Content with font tags gets the tag-walking treatment so that only text
// inside recognized spans is captured; everything else falls back to
// stripping tags and brace control codes wholesale.
func extractText(content string) string {
	var captured []string

	if strings.Contains(strings.ToLower(content), "<font") {
		captured = walkFontSpans(content)
	}

	if len(captured) == 0 {
		clean := tagRe.ReplaceAllString(content, "")
		clean = braceRe.ReplaceAllString(clean, "")
		clean = collapseSpace(clean)
		if clean != "" {
			captured = append(captured, clean)
		}
	}

	combined := strings.Join(captured, " ")
	combined = braceRe.ReplaceAllString(combined, "")
	return collapseSpace(combined)
}

// walkFontSpans scans the content once per <font opening tag, tracking a tag
// nesting stack. Text is captured only while at least one font tag is open.
// Bold tags are skipped without touching the stack; unknown tags are skipped
// to their closing '>'. Identical captured spans are deduplicated, which
// collapses the repeated capture a nested font-in-font block would produce.
func walkFontSpans(content string) []string {
	var spans []string

	for _, loc := range fontOpen.FindAllStringIndex(content, -1) {
		rem := content[loc[0]:]
		var stack []string
		var text strings.Builder
		inText := false

		for i := 0; i < len(rem); {
			switch {
			case hasFold(rem[i:], "<font"):
				end := strings.IndexByte(rem[i:], '>')
				if end < 0 {
					i++
					continue
				}
				stack = append(stack, "font")
				i += end + 1
				inText = true

			case hasFold(rem[i:], "</font>"):
				if len(stack) > 0 && stack[len(stack)-1] == "font" {
					stack = stack[:len(stack)-1]
					if len(stack) == 0 {
						i = len(rem) // done with this span
						continue
					}
				}
				i += len("</font>")

			case hasFold(rem[i:], "<b>"):
				i += len("<b>")

			case hasFold(rem[i:], "</b>"):
				i += len("</b>")

			case rem[i] == '<':
				end := strings.IndexByte(rem[i:], '>')
				if end < 0 {
					i++
					continue
				}
				i += end + 1

			default:
				if inText && len(stack) > 0 {
					text.WriteByte(rem[i])
				}
				i++
			}
		}

		clean := collapseSpace(text.String())
		clean = collapseSpace(braceRe.ReplaceAllString(clean, ""))
		if clean == "" {
			continue
		}
		if !containsString(spans, clean) {
			spans = append(spans, clean)
		}
	}

	return spans
}

func hasFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
