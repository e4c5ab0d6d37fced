package translate

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/subtrans/subtrans/langmeta"
)

// PromptSet holds the instruction templates for each call shape. Templates
// use {{sourceLang}}, {{targetLang}}, {{count}} and {{text}} placeholders.
type PromptSet struct {
	// Document is the numbered-list template for structured chunks.
	Document string `json:"document"`
	// PlainText is the single-text template for the plain-text path.
	PlainText string `json:"plain_text"`
	// Legacy is the whole-document template for the legacy path.
	Legacy string `json:"legacy"`
}

const defaultDocumentPrompt = `You are a professional subtitle translator. Translate the following numbered lines from {{sourceLang}} to {{targetLang}}.

Rules:
- Return exactly {{count}} numbered lines, one translation per line.
- Keep the same numbering as the input.
- Translate naturally and idiomatically, preserving tone and register.
- Never add explanations, notes or commentary.
- Never merge or split lines.

Lines:
{{text}}

Translations:`

const directDocumentPrompt = `Translate each numbered line from {{sourceLang}} to {{targetLang}}. Output {{count}} numbered lines with the same numbers, translations only, nothing else.

{{text}}`

const defaultPlainTextPrompt = `You are a professional translator. Translate the following text from {{sourceLang}} to {{targetLang}}.

Text enclosed in double quotes must be kept exactly as written, untranslated, with the quotes removed in your output only if they were not in the original.

Respond with the translation only, no explanations.

Text:
{{text}}`

const defaultLegacyPrompt = `Translate the subtitle file below from {{sourceLang}} to {{targetLang}}. Keep every sequence number and timing line exactly as in the original. Translate only the subtitle text. Respond with the complete translated file between the markers, nothing else.

---START SRT---
{{text}}
---END SRT---`

// DefaultPrompts returns the built-in prompt templates.
func DefaultPrompts() *PromptSet {
	return &PromptSet{
		Document:  defaultDocumentPrompt,
		PlainText: defaultPlainTextPrompt,
		Legacy:    defaultLegacyPrompt,
	}
}

// documentTemplates are the named document-prompt variants the tuning
// artifact can select between. The tuner scored "stand_authority" highest
// for the default model, so it is the default.
var documentTemplates = map[string]string{
	"stand_authority":   defaultDocumentPrompt,
	"direct_imperative": directDocumentPrompt,
}

// PromptsFor returns the prompt set selected by a tuning template name.
// Unknown names fall back to the defaults.
func PromptsFor(name string) *PromptSet {
	ps := DefaultPrompts()
	if doc, ok := documentTemplates[name]; ok {
		ps.Document = doc
	}
	return ps
}

// LoadPrompts reads template overrides from a JSON file. A missing file
// yields the defaults without error; empty fields keep their defaults.
func LoadPrompts(path string) (*PromptSet, error) {
	defaults := DefaultPrompts()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return defaults, err
	}

	var loaded PromptSet
	if err := json.Unmarshal(data, &loaded); err != nil {
		return defaults, fmt.Errorf("parsing %s: %w", path, err)
	}

	if loaded.Document == "" {
		loaded.Document = defaults.Document
	}
	if loaded.PlainText == "" {
		loaded.PlainText = defaults.PlainText
	}
	if loaded.Legacy == "" {
		loaded.Legacy = defaults.Legacy
	}
	return &loaded, nil
}

// DocumentPrompt renders the numbered-list prompt for a fragment chunk.
func (p *PromptSet) DocumentPrompt(fragments []string, sourceLang, targetLang string) string {
	var sb strings.Builder
	for i, f := range fragments {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, f)
	}
	return render(p.Document, sourceLang, targetLang, map[string]string{
		"{{count}}": fmt.Sprintf("%d", len(fragments)),
		"{{text}}":  strings.TrimRight(sb.String(), "\n"),
	})
}

// PlainTextPrompt renders the single-text prompt.
func (p *PromptSet) PlainTextPrompt(text, sourceLang, targetLang string) string {
	return render(p.PlainText, sourceLang, targetLang, map[string]string{
		"{{text}}": text,
	})
}

// LegacyPrompt renders the whole-document prompt.
func (p *PromptSet) LegacyPrompt(document, sourceLang, targetLang string) string {
	return render(p.Legacy, sourceLang, targetLang, map[string]string{
		"{{text}}": document,
	})
}

func render(template, sourceLang, targetLang string, extra map[string]string) string {
	src := langmeta.DisplayName(sourceLang)
	if src == "" {
		src = "the source language"
	}
	dst := langmeta.DisplayName(targetLang)
	if dst == "" {
		dst = targetLang
	}

	out := template
	out = strings.ReplaceAll(out, "{{sourceLang}}", src)
	out = strings.ReplaceAll(out, "{{targetLang}}", dst)
	for k, v := range extra {
		out = strings.ReplaceAll(out, k, v)
	}
	return out
}
