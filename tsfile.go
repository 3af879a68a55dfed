package linguist

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/snapcore/go-linguist/internal/tsxml"
)

var supportedTSVersions = map[string]bool{
	"1.0": true,
	"1.1": true,
	"2.0": true,
	"2.1": true,
}

// ParseTS parses a Qt Linguist .ts document into a catalog for module.
//
// The document must declare a supported schema version and its language.
// Unknown attributes and elements are ignored. A translation without a
// type attribute is finished when it has text and unfinished otherwise.
// Two messages with the same context, source and disambiguation make the
// whole document fail with a DuplicateKey error.
func ParseTS(r io.Reader, module string) (*Catalog, error) {
	return ParseTSLocale(r, module, "")
}

// ParseTSLocale is like ParseTS, but a document that does not declare its
// language is read as fallbackLocale, usually taken from its file name.
// An empty fallbackLocale keeps the language required.
func ParseTSLocale(r io.Reader, module, fallbackLocale string) (*Catalog, error) {
	doc, err := tsxml.Decode(r)
	if err != nil {
		var xe *tsxml.Error
		if errors.As(err, &xe) {
			return nil, malformed(xe.Line, "%s", xe.Msg)
		}
		return nil, malformed(0, "%v", err)
	}
	if doc.Version == "" {
		return nil, malformed(0, "missing schema version")
	}
	if !supportedTSVersions[doc.Version] {
		return nil, malformed(0, "unsupported schema version %q", doc.Version)
	}
	language := doc.Language
	if language == "" {
		language = fallbackLocale
	}
	if language == "" {
		return nil, malformed(0, "missing document language")
	}
	if _, err := NormalizeLocale(language); err != nil {
		return nil, malformed(0, "invalid document language %q", language)
	}

	var messages []Message
	seen := make(map[Key]bool)
	lines := lineTracker{last: make(map[string]int)}
	for _, ctx := range doc.Contexts {
		if !ctx.HasName {
			return nil, malformed(ctx.Line, "context without name")
		}
		for _, raw := range ctx.Messages {
			msg, err := convertMessage(ctx.Name, &raw, &lines)
			if err != nil {
				return nil, err
			}
			key := msg.Key()
			if seen[key] {
				return nil, &ParseError{Kind: DuplicateKey, Line: raw.Line, Key: key}
			}
			seen[key] = true
			messages = append(messages, msg)
		}
	}

	return NewCatalog(CatalogInfo{
		Module:       module,
		Locale:       language,
		SourceLocale: doc.SourceLanguage,
		Version:      doc.Version,
	}, messages)
}

func convertMessage(context string, raw *tsxml.Message, lines *lineTracker) (Message, error) {
	if !raw.HasSource {
		return Message{}, malformed(raw.Line, "message without source in context %q", context)
	}
	msg := Message{
		Context:           context,
		Source:            raw.Source,
		Disambiguation:    raw.Comment,
		OldSource:         raw.OldSource,
		OldDisambiguation: raw.OldComment,
		ExtraComment:      raw.ExtraComment,
		TranslatorComment: raw.TranslatorComment,
		Translation:       raw.Translation.Text,
	}
	if raw.Numerus && len(raw.Translation.NumerusForms) > 0 {
		msg.PluralForms = append([]string(nil), raw.Translation.NumerusForms...)
		msg.Translation = msg.PluralForms[0]
	}

	status, ok := parseStatus(raw.Translation.Type, !msg.hasText())
	if !ok {
		return Message{}, malformed(raw.Line, "unknown translation type %q", raw.Translation.Type)
	}
	msg.Status = status

	for _, loc := range raw.Locations {
		msg.Locations = append(msg.Locations, lines.resolve(loc))
	}
	return msg, nil
}

// lineTracker resolves the relative locations written by lupdate
// ("+3" or "-2") against the previous location in the same file. An
// empty filename refers to the previous file.
type lineTracker struct {
	file string
	last map[string]int
}

func (t *lineTracker) resolve(loc tsxml.Location) Location {
	file := loc.File
	if file == "" {
		file = t.file
	}
	t.file = file

	line := 0
	v := strings.TrimSpace(loc.Line)
	if strings.HasPrefix(v, "+") || strings.HasPrefix(v, "-") {
		if delta, err := strconv.Atoi(v); err == nil {
			line = t.last[file] + delta
		}
	} else if n, err := strconv.Atoi(v); err == nil {
		line = n
	}
	t.last[file] = line
	return Location{File: file, Line: line}
}
