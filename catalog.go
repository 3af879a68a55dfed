package linguist

import (
	"fmt"

	"github.com/snapcore/go-linguist/pluralforms"
)

// CatalogInfo describes the document a catalog was built from.
type CatalogInfo struct {
	Module string
	Locale string
	// SourceLocale is the language of the source texts, if known.
	SourceLocale string
	// Version is the schema version of the document.
	Version string
	// PluralRule overrides the plural rule of Locale. MO catalogs carry
	// their own rule in the Plural-Forms header.
	PluralRule *pluralforms.Rule
}

type oldSourceKey struct {
	context, source string
}

// Catalog holds all messages of one module in one locale. A Catalog is
// immutable once built and safe for concurrent use.
type Catalog struct {
	info     CatalogInfo
	rule     pluralforms.Rule
	messages []*Message
	index    map[Key]*Message
	byOld    map[oldSourceKey][]*Message
}

// NewCatalog builds an indexed catalog from messages. The messages are
// copied. It fails with a DuplicateKey ParseError if two messages share a
// key.
func NewCatalog(info CatalogInfo, messages []Message) (*Catalog, error) {
	locale, err := NormalizeLocale(info.Locale)
	if err != nil {
		return nil, malformed(0, "invalid locale %q: %v", info.Locale, err)
	}
	info.Locale = locale
	if info.SourceLocale != "" {
		if src, err := NormalizeLocale(info.SourceLocale); err == nil {
			info.SourceLocale = src
		}
	}

	c := &Catalog{
		info:     info,
		messages: make([]*Message, 0, len(messages)),
		index:    make(map[Key]*Message, len(messages)),
		byOld:    make(map[oldSourceKey][]*Message),
	}
	if info.PluralRule != nil {
		c.rule = *info.PluralRule
	} else {
		c.rule = pluralforms.ForLocale(locale)
	}

	for i := range messages {
		m := messages[i].clone()
		key := m.Key()
		if _, ok := c.index[key]; ok {
			return nil, &ParseError{Kind: DuplicateKey, Key: key}
		}
		c.index[key] = m
		c.messages = append(c.messages, m)
		if m.OldSource != "" {
			k := oldSourceKey{m.Context, m.OldSource}
			c.byOld[k] = append(c.byOld[k], m)
		}
	}
	return c, nil
}

// Module returns the module the catalog belongs to.
func (c *Catalog) Module() string { return c.info.Module }

// Locale returns the canonical locale of the catalog, e.g. "ru-RU".
func (c *Catalog) Locale() string { return c.info.Locale }

// Info returns the document description of the catalog.
func (c *Catalog) Info() CatalogInfo { return c.info }

// PluralRule returns the plural rule used to select plural forms.
func (c *Catalog) PluralRule() pluralforms.Rule { return c.rule }

// Len returns the number of messages.
func (c *Catalog) Len() int { return len(c.messages) }

// Lookup returns the message with the given key.
func (c *Catalog) Lookup(key Key) (*Message, bool) {
	m, ok := c.index[key]
	return m, ok
}

// LookupByOldSource returns a message of context whose previous source
// text is oldSource. When several messages match, a finished one wins,
// then an unfinished one with text, then document order.
func (c *Catalog) LookupByOldSource(context, oldSource string) (*Message, bool) {
	ms := c.byOld[oldSourceKey{context, oldSource}]
	if len(ms) == 0 {
		return nil, false
	}
	for _, pick := range []func(*Message) bool{(*Message).usable, (*Message).candidate} {
		for _, m := range ms {
			if pick(m) {
				return m, true
			}
		}
	}
	return ms[0], true
}

// Messages returns the messages in document order. The returned slice
// may be modified by the caller, the messages may not.
func (c *Catalog) Messages() []*Message {
	return append([]*Message(nil), c.messages...)
}

// Stats counts messages per status.
type Stats struct {
	Total      int
	Finished   int
	Unfinished int
	Obsolete   int
	Vanished   int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d messages: %d finished, %d unfinished, %d obsolete, %d vanished",
		s.Total, s.Finished, s.Unfinished, s.Obsolete, s.Vanished)
}

// Stats returns message counts per status.
func (c *Catalog) Stats() Stats {
	s := Stats{Total: len(c.messages)}
	for _, m := range c.messages {
		switch m.Status {
		case Finished:
			s.Finished++
		case Unfinished:
			s.Unfinished++
		case Obsolete:
			s.Obsolete++
		case Vanished:
			s.Vanished++
		}
	}
	return s
}
