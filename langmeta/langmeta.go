// Package langmeta resolves language codes to display metadata. Prompt
// construction needs English language names ("Brazilian Portuguese", not
// "pt-br"), and the CLI shows native names and flags for common languages.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	// Code is the canonical BCP 47 tag.
	Code string
	// Name is the English display name, suitable for prompts.
	Name string
	// Native is the language's own name for itself, when known.
	Native string
	// Flag is an emoji flag, when known.
	Flag string
}

// overrides pin prompt-facing names where the CLDR default reads poorly
// for a translation instruction.
var overrides = map[string]string{
	"pt-BR": "Brazilian Portuguese",
	"pt-PT": "European Portuguese",
	"zh-CN": "Simplified Chinese",
	"zh-TW": "Traditional Chinese",
	"en-GB": "British English",
	"en-US": "English",
}

// flags covers the languages the service is commonly asked for; anything
// else resolves without a flag.
var flags = map[string]string{
	"ar": "🇸🇦", "de": "🇩🇪", "en": "🇺🇸", "es": "🇪🇸", "fr": "🇫🇷",
	"it": "🇮🇹", "ja": "🇯🇵", "ko": "🇰🇷", "nl": "🇳🇱", "pl": "🇵🇱",
	"pt": "🇵🇹", "pt-BR": "🇧🇷", "ru": "🇷🇺", "tr": "🇹🇷", "zh": "🇨🇳",
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort metadata for a language code, accepting
// variants like pt_BR, pt-br and PT-BR. Unknown codes pass through as
// their own name so prompts stay usable.
func Resolve(lang string) Meta {
	code := canonicalize(lang)
	if code == "" {
		return Meta{}
	}

	meta := Meta{Code: code, Name: lookupName(code), Flag: lookupFlag(code)}

	if tag, err := language.Parse(code); err == nil {
		meta.Native = display.Self.Name(tag)
	}
	if meta.Name == "" {
		meta.Name = lang
	}
	return meta
}

// DisplayName returns the English name for a language code, the form the
// backend prompts use.
func DisplayName(lang string) string {
	return Resolve(lang).Name
}

func lookupName(code string) string {
	if name, ok := overrides[code]; ok {
		return name
	}
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return ""
}

func lookupFlag(code string) string {
	if f, ok := flags[code]; ok {
		return f
	}
	if base := strings.SplitN(code, "-", 2)[0]; base != code {
		return flags[base]
	}
	return ""
}
