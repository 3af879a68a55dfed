package linguist

import (
	"fmt"
	"strings"
)

// Status is the translation state of a message.
type Status int

const (
	// Finished messages are ready for use.
	Finished Status = iota
	// Unfinished messages have a missing or stale translation.
	Unfinished
	// Obsolete messages are no longer present in the sources but are kept
	// for reference.
	Obsolete
	// Vanished messages are being removed from the catalog.
	Vanished
)

var statusNames = [...]string{
	Finished:   "finished",
	Unfinished: "unfinished",
	Obsolete:   "obsolete",
	Vanished:   "vanished",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// parseStatus maps the type attribute of a <translation> element to a
// Status. An empty attribute defers to the translation text.
func parseStatus(attr string, empty bool) (Status, bool) {
	switch attr {
	case "":
		if empty {
			return Unfinished, true
		}
		return Finished, true
	case "unfinished":
		return Unfinished, true
	case "obsolete":
		return Obsolete, true
	case "vanished":
		return Vanished, true
	}
	return 0, false
}

// Location is the place in the sources where a message was extracted.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Key identifies a message inside a catalog.
type Key struct {
	Context        string
	Source         string
	Disambiguation string
}

func (k Key) String() string {
	var sb strings.Builder
	if k.Context != "" {
		sb.WriteString(k.Context)
		sb.WriteString("::")
	}
	sb.WriteString(k.Source)
	if k.Disambiguation != "" {
		sb.WriteString(" (")
		sb.WriteString(k.Disambiguation)
		sb.WriteString(")")
	}
	return sb.String()
}

// Message is one translatable unit of a catalog.
type Message struct {
	Context        string
	Source         string
	Disambiguation string

	// OldSource is the previous source text, set when the source was
	// edited after it was translated.
	OldSource         string
	OldDisambiguation string

	Translation string
	// PluralForms holds the quantity dependent variants, in category
	// order. It is empty for messages without plural forms.
	PluralForms []string
	Status      Status

	ExtraComment      string
	TranslatorComment string

	// Locations are informational and never affect resolution.
	Locations []Location
}

// Key returns the lookup key of the message.
func (m *Message) Key() Key {
	return Key{Context: m.Context, Source: m.Source, Disambiguation: m.Disambiguation}
}

// IsPlural reports whether the message carries plural forms.
func (m *Message) IsPlural() bool {
	return len(m.PluralForms) > 0
}

// hasText reports whether any translation text is present.
func (m *Message) hasText() bool {
	if m.Translation != "" {
		return true
	}
	for _, f := range m.PluralForms {
		if f != "" {
			return true
		}
	}
	return false
}

// usable reports whether the message can be surfaced as a confident
// translation.
func (m *Message) usable() bool {
	return m.Status == Finished && m.hasText()
}

// candidate reports whether the message can be surfaced as a best effort
// translation.
func (m *Message) candidate() bool {
	return (m.Status == Finished || m.Status == Unfinished) && m.hasText()
}

func (m *Message) clone() *Message {
	c := *m
	c.PluralForms = append([]string(nil), m.PluralForms...)
	c.Locations = append([]Location(nil), m.Locations...)
	return &c
}
