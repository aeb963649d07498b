// Package i18n translates arbkit's own user-facing strings.
//
// Catalogs are gettext .po files embedded from
// locales/{lang}/LC_MESSAGES/arbkit.po and loaded by Init. Strings without
// a translation pass through unchanged.
//
//	i18n.Init("")  // LANGUAGE, LC_ALL, LC_MESSAGES, LANG
//	fmt.Println(i18n.T("Nothing to translate"))
//	fmt.Println(i18n.N("%d key", "%d keys", n))
package i18n

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

//go:embed all:locales
var locales embed.FS

const domain = "arbkit"

var (
	po   *gotext.Locale
	lang = "en"
)

// Init loads the catalog for lang. An empty lang is detected from the
// environment the way GNU gettext does.
func Init(l string) {
	if l == "" {
		l = detectLanguage()
	}
	lang = l
	po = gotext.NewLocaleFSWithPath(l, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// Lang returns the language passed to (or detected by) Init.
func Lang() string { return lang }

// T translates msgid.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid, []any(nil)...) // no vars: gotext returns the translation unformatted
}

// Tf translates format and formats it with args.
func Tf(format string, args ...any) string {
	return fmt.Sprintf(T(format), args...)
}

// N translates a message with plural forms and formats it with n.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return fmt.Sprintf(singular, n)
		}
		return fmt.Sprintf(plural, n)
	}
	return po.GetN(singular, plural, n, n)
}

// detectLanguage follows the gettext priority LANGUAGE > LC_ALL >
// LC_MESSAGES > LANG. "C" and "POSIX" mean untranslated.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		// ru_RU.UTF-8 -> ru_RU
		val, _, _ = strings.Cut(val, ".")
		if val == "" || val == "C" || val == "POSIX" {
			continue
		}
		return val
	}
	return "en"
}
