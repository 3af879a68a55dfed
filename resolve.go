package linguist

import "fmt"

// Outcome classifies the result of a lookup.
type Outcome int

const (
	// Resolved means a finished translation was found.
	Resolved Outcome = iota
	// ResolvedUnfinished means only an unfinished translation was found.
	ResolvedUnfinished
	// NotFound means no translation was found and the source text is
	// returned.
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case ResolvedUnfinished:
		return "resolved-unfinished"
	case NotFound:
		return "not-found"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Resolution is the result of a lookup. Text is always displayable: on
// NotFound it is the source text.
type Resolution struct {
	Text    string
	Outcome Outcome
	// Locale is the locale of the catalog the text came from, empty on
	// NotFound.
	Locale  string
	Message *Message
	// Migrated is set when the message was found through its previous
	// source text.
	Migrated bool
}

type match struct {
	msg      *Message
	catalog  *Catalog
	outcome  Outcome
	migrated bool
}

// find walks chain and returns the first finished translation of key. An
// unfinished translation is only kept as a candidate while the walk goes
// on, the first one found wins.
func (s *snapshot) find(module string, key Key, chain []string) match {
	var cand match
	cand.outcome = NotFound
	consider := func(m *Message, c *Catalog, migrated bool) bool {
		if m.usable() {
			cand = match{msg: m, catalog: c, outcome: Resolved, migrated: migrated}
			return true
		}
		if cand.msg == nil && m.candidate() {
			cand = match{msg: m, catalog: c, outcome: ResolvedUnfinished, migrated: migrated}
		}
		return false
	}

	for _, locale := range chain {
		c, ok := s.stores[storeKey{module, locale}]
		if !ok {
			continue
		}
		if m, ok := c.Lookup(key); ok {
			if consider(m, c, false) {
				return cand
			}
			if m.candidate() {
				continue
			}
		}
		// The caller may still use a source text that was edited since,
		// possibly kept as an obsolete entry: look for a message that
		// recorded it as its old source.
		if m, ok := c.LookupByOldSource(key.Context, key.Source); ok {
			if consider(m, c, true) {
				return cand
			}
		}
	}
	return cand
}

func singularText(m *Message) string {
	if m.Translation != "" {
		return m.Translation
	}
	for _, f := range m.PluralForms {
		if f != "" {
			return f
		}
	}
	return ""
}

// chainFor normalizes an explicit chain. A nil chain selects the active
// one.
func (r *Registry) chainFor(chain []string) []string {
	if chain == nil {
		return nil
	}
	return r.normalizeChain(chain)
}

func (r *Registry) resolve(module string, key Key, chain []string, plural bool, n uint64) Resolution {
	s := r.snap.Load()
	if chain == nil {
		chain = s.chain
	}
	found := s.find(module, key, chain)

	res := Resolution{Text: key.Source, Outcome: found.outcome}
	if found.msg != nil {
		res.Message = found.msg
		res.Locale = found.catalog.Locale()
		res.Migrated = found.migrated
		res.Text = singularText(found.msg)
		if plural {
			if t := found.catalog.PluralRule().Select(n, found.msg.PluralForms, res.Text); t != "" {
				res.Text = t
			}
		}
	}

	if res.Outcome != Resolved {
		if h := r.diag.Load(); h != nil {
			h.d.Lookup(LookupEvent{
				Module:  module,
				Key:     key,
				Outcome: res.Outcome,
				Locale:  res.Locale,
				Chain:   append([]string(nil), chain...),
				Plural:  plural,
			})
		}
	}
	return res
}

// Resolve looks key up in module using the active locale chain.
func (r *Registry) Resolve(module string, key Key) Resolution {
	return r.resolve(module, key, nil, false, 0)
}

// ResolveChain looks key up in module using chain instead of the active
// locale chain. The chain is normalized as by SetLocaleChain.
func (r *Registry) ResolveChain(module string, key Key, chain []string) Resolution {
	return r.resolve(module, key, r.chainFor(chain), false, 0)
}

// ResolvePlural looks key up like Resolve and selects the plural form for
// quantity n using the plural rule of the catalog the message came from.
func (r *Registry) ResolvePlural(module string, key Key, n uint64) Resolution {
	return r.resolve(module, key, nil, true, n)
}

// ResolvePluralChain is ResolvePlural with an explicit locale chain.
func (r *Registry) ResolvePluralChain(module string, key Key, chain []string, n uint64) Resolution {
	return r.resolve(module, key, r.chainFor(chain), true, n)
}

// Translate returns the text to display for source in context.
func (r *Registry) Translate(module, context, source, disambiguation string) string {
	return r.Resolve(module, Key{context, source, disambiguation}).Text
}

// TranslatePlural returns the text to display for source in context for
// quantity n. Placeholders such as %n are left for the caller.
func (r *Registry) TranslatePlural(module, context, source, disambiguation string, n uint64) string {
	return r.ResolvePlural(module, Key{context, source, disambiguation}, n).Text
}
