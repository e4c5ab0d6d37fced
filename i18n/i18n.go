// Package i18n provides internationalization for subtrans's own
// user-facing strings (CLI output, log messages shown to users).
//
// It wraps the gotext library behind simple T() and N() functions.
// Translations are embedded in the binary via //go:embed and loaded at
// startup via Init().
//
// Usage:
//
//	import "github.com/subtrans/subtrans/i18n"
//
//	func main() {
//	    i18n.Init("")  // auto-detect from LANGUAGE/LC_ALL/LC_MESSAGES/LANG
//	    fmt.Println(i18n.T("Translating..."))
//	    fmt.Println(i18n.N("%d subtitle block", "%d subtitle blocks", count))
//	}
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales embeds the translation catalogs.
// Directory structure: locales/{lang}/LC_MESSAGES/subtrans.po
//
//go:embed all:locales
var locales embed.FS

// domain is the gettext domain name for subtrans.
const domain = "subtrans"

var po *gotext.Locale

// Init initializes the i18n system. If lang is empty, it auto-detects
// from LANGUAGE, LC_ALL, LC_MESSAGES and LANG (in that order, matching
// GNU gettext behavior). Call once at startup, before T() or N().
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}

	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// T translates a string, returning the original unchanged when no
// translation is available.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	// Call through a func value: message ids may contain % verbs and must
	// not be treated as format strings.
	get := po.Get
	return get(msgid)
}

// N translates a string with plural forms.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// detectLanguage reads environment variables to determine the user's
// preferred language, following GNU gettext conventions.
func detectLanguage() string {
	// GNU gettext priority: LANGUAGE > LC_ALL > LC_MESSAGES > LANG
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		if val := os.Getenv(env); val != "" {
			// LANGUAGE can be a colon-separated list; take the first
			if env == "LANGUAGE" {
				parts := strings.SplitN(val, ":", 2)
				val = parts[0]
			}
			// Strip encoding suffix (e.g. "pt_BR.UTF-8" -> "pt_BR")
			if idx := strings.IndexByte(val, '.'); idx >= 0 {
				val = val[:idx]
			}
			// "C" and "POSIX" mean no translation
			if val == "C" || val == "POSIX" || val == "" {
				continue
			}
			return val
		}
	}
	return "en"
}
