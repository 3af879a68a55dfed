package pluralforms

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// Rule describes how a language splits quantities into plural categories.
type Rule struct {
	// Forms is the number of plural categories of the language.
	Forms int
	// Expr maps a quantity to a category index in [0, Forms).
	Expr Expression
}

// Category returns the category index for n, clamped to [0, Forms).
func (r Rule) Category(n uint64) int {
	if r.Expr == nil {
		return germanic.Category(n)
	}
	idx := r.Expr.Eval(n)
	if idx < 0 {
		return 0
	}
	if r.Forms > 0 && idx >= r.Forms {
		return r.Forms - 1
	}
	return idx
}

// Select picks the variant of forms for quantity n. With no forms at all
// the singular text is returned. If fewer forms than categories were
// supplied, the last form is reused for the missing categories.
func (r Rule) Select(n uint64, forms []string, singular string) string {
	if len(forms) == 0 {
		return singular
	}
	idx := r.Category(n)
	if idx >= len(forms) {
		idx = len(forms) - 1
	}
	return forms[idx]
}

func (r Rule) String() string {
	return fmt.Sprintf("nplurals=%d; plural=%s;", r.Forms, r.Expr)
}

// Select is a shortcut for ForLocale(locale).Select(n, forms, singular).
func Select(locale string, n uint64, forms []string, singular string) string {
	return ForLocale(locale).Select(n, forms, singular)
}

var germanic = Rule{Forms: 2, Expr: MustCompile("n != 1")}

// ruleSources holds the gettext Plural-Forms expressions per base language.
var ruleSources = []struct {
	forms     int
	expr      string
	languages []string
}{
	{1, "0", []string{"id", "ja", "jv", "ka", "km", "ko", "lo", "ms", "my", "th", "vi", "zh"}},
	{2, "n != 1", []string{
		"af", "az", "bg", "ca", "da", "de", "el", "en", "eo", "es", "et", "eu",
		"fi", "fo", "fy", "gl", "he", "hu", "it", "kk", "ky", "lb", "nb", "nl",
		"nn", "no", "pt", "sq", "sv", "sw", "ta", "te", "ur", "uz",
	}},
	{2, "n > 1", []string{"ak", "am", "fa", "fil", "fr", "hy", "ln", "mg", "oc", "ti", "tr", "wa"}},
	{2, "n%10 != 1 || n%100 == 11", []string{"is"}},
	{2, "n == 1 || n%10 == 1 ? 0 : 1", []string{"mk"}},
	{3, "n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2",
		[]string{"be", "bs", "hr", "ru", "sr", "uk"}},
	{3, "n==1 ? 0 : n>=2 && n<=4 ? 1 : 2", []string{"cs", "sk"}},
	{3, "n==1 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2", []string{"pl"}},
	{3, "n%10==1 && n%100!=11 ? 0 : n%10>=2 && (n%100<10 || n%100>=20) ? 1 : 2", []string{"lt"}},
	{3, "n%10==1 && n%100!=11 ? 0 : n != 0 ? 1 : 2", []string{"lv"}},
	{3, "n==1 ? 0 : (n==0 || (n%100 > 0 && n%100 < 20)) ? 1 : 2", []string{"ro"}},
	{4, "n%100==1 ? 0 : n%100==2 ? 1 : n%100==3 || n%100==4 ? 2 : 3", []string{"sl"}},
	{4, "n==1 ? 0 : n==2 ? 1 : (n != 8 && n != 11) ? 2 : 3", []string{"cy"}},
	{4, "n==1 ? 0 : n==0 || (n%100>1 && n%100<11) ? 1 : (n%100>10 && n%100<20) ? 2 : 3", []string{"mt"}},
	{5, "n==1 ? 0 : n==2 ? 1 : n<7 ? 2 : n<11 ? 3 : 4", []string{"ga"}},
	{6, "n==0 ? 0 : n==1 ? 1 : n==2 ? 2 : n%100>=3 && n%100<=10 ? 3 : n%100>=11 ? 4 : 5", []string{"ar"}},
}

var rules = buildRules()

func buildRules() map[string]Rule {
	m := make(map[string]Rule)
	for _, src := range ruleSources {
		r := Rule{Forms: src.forms, Expr: MustCompile(src.expr)}
		for _, lang := range src.languages {
			m[lang] = r
		}
	}
	// Brazilian Portuguese follows the French rule.
	m["pt-BR"] = Rule{Forms: 2, Expr: MustCompile("n > 1")}
	return m
}

// ForLocale returns the rule of a locale identifier such as "ru", "pt_BR"
// or "sr-Latn-RS". Unknown or unparsable locales get the "n != 1" rule.
func ForLocale(locale string) Rule {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return germanic
	}
	return ForTag(tag)
}

// ForTag returns the rule for a language tag.
func ForTag(tag language.Tag) Rule {
	base, _, region := tag.Raw()
	if region != (language.Region{}) {
		if r, ok := rules[base.String()+"-"+region.String()]; ok {
			return r
		}
	}
	if r, ok := rules[base.String()]; ok {
		return r
	}
	return germanic
}

// ParseHeader parses the value of a gettext Plural-Forms header, for
// example "nplurals=3; plural=(n==1) ? 0 : 1;".
func ParseHeader(header string) (Rule, error) {
	var r Rule
	var expr string
	for _, part := range strings.Split(header, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(k) {
		case "nplurals":
			forms, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || forms < 1 {
				return Rule{}, fmt.Errorf("invalid nplurals %q", v)
			}
			r.Forms = forms
		case "plural":
			expr = v
		}
	}
	if r.Forms == 0 {
		return Rule{}, fmt.Errorf("missing nplurals in %q", header)
	}
	if expr == "" {
		return Rule{}, fmt.Errorf("missing plural expression in %q", header)
	}
	e, err := Compile(expr)
	if err != nil {
		return Rule{}, err
	}
	r.Expr = e
	return r, nil
}
