package linguist

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

// BaseLocale is the development locale. Source texts are written in it,
// so it is always the last element of a locale chain.
const BaseLocale = "en"

var osGetenv = os.Getenv

// UserLanguages returns the user's preferred languages from the
// environment, following gettext: LANGUAGE (a colon separated list)
// overrides LC_ALL, which overrides LC_MESSAGES, which overrides LANG.
func UserLanguages() []string {
	var langs []string
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := osGetenv(name); v != "" {
			langs = []string{v}
			break
		}
	}
	if v := osGetenv("LANGUAGE"); v != "" {
		langs = nil
		for _, l := range strings.Split(v, ":") {
			if l != "" {
				langs = append(langs, l)
			}
		}
	}
	return langs
}

var modifierScripts = map[string]string{
	"latin":      "Latn",
	"cyrillic":   "Cyrl",
	"devanagari": "Deva",
}

// parseLocale parses POSIX style ("sr_RS.UTF-8@latin") and BCP 47 style
// ("sr-Latn-RS") locale identifiers.
func parseLocale(locale string) (language.Tag, error) {
	s := strings.TrimSpace(locale)
	var modifier string
	if idx := strings.IndexByte(s, '@'); idx >= 0 {
		s, modifier = s[:idx], s[idx+1:]
	}
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		s = s[:idx]
	}
	switch s {
	case "", "C", "POSIX":
		return language.Und, fmt.Errorf("locale %q has no language", locale)
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return language.Und, err
	}
	if script, ok := modifierScripts[strings.ToLower(modifier)]; ok {
		if sc, err := language.ParseScript(script); err == nil {
			if t, err := language.Compose(tag, sc); err == nil {
				tag = t
			}
		}
	}
	return tag, nil
}

// NormalizeLocale returns the canonical BCP 47 form of a locale, for
// example "ru_RU.UTF-8" becomes "ru-RU".
func NormalizeLocale(locale string) (string, error) {
	tag, err := parseLocale(locale)
	if err != nil {
		return "", err
	}
	return tag.String(), nil
}

// ExpandLocale returns the locale followed by its less specific forms:
// "sr-Latn-RS" expands to "sr-Latn-RS", "sr-Latn", "sr". Invalid locales
// expand to nothing.
func ExpandLocale(locale string) []string {
	tag, err := parseLocale(locale)
	if err != nil {
		return nil
	}
	base, script, region := tag.Raw()

	candidates := []language.Tag{tag}
	if t, err := language.Compose(base, script, region); err == nil {
		candidates = append(candidates, t)
	}
	if script != (language.Script{}) {
		if t, err := language.Compose(base, script); err == nil {
			candidates = append(candidates, t)
		}
	}
	if t, err := language.Compose(base); err == nil {
		candidates = append(candidates, t)
	}

	var out []string
	seen := make(map[string]bool)
	for _, t := range candidates {
		s := t.String()
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// FallbackChain builds a locale chain from a preference list. Every
// preference is expanded, duplicates are dropped keeping the first
// occurrence and base terminates the chain.
func FallbackChain(base string, prefs ...string) []string {
	var chain []string
	seen := make(map[string]bool)
	add := func(l string) {
		if !seen[l] {
			seen[l] = true
			chain = append(chain, l)
		}
	}
	for _, p := range prefs {
		for _, l := range ExpandLocale(p) {
			add(l)
		}
	}
	if b, err := NormalizeLocale(base); err == nil {
		chain = terminate(chain, b)
	}
	return chain
}

// terminate makes base the last element of chain. Locales after an
// earlier occurrence of base are unreachable and are dropped.
func terminate(chain []string, base string) []string {
	for i, l := range chain {
		if l == base {
			return chain[:i+1]
		}
	}
	return append(chain, base)
}
