// Package tsxml decodes the XML structure of Qt Linguist .ts documents.
// It performs no validation beyond the XML layer: interpretation of
// statuses, versions and keys is left to the caller.
package tsxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// Error reports a structural problem in a document.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

type Document struct {
	Version        string
	Language       string
	SourceLanguage string
	Contexts       []Context
}

type Context struct {
	Line     int
	Name     string
	HasName  bool
	Messages []Message
}

type Location struct {
	File string
	Line string
}

type Translation struct {
	Type         string
	Text         string
	NumerusForms []string
}

type Message struct {
	Line    int
	Numerus bool

	Source            string
	HasSource         bool
	OldSource         string
	Comment           string
	OldComment        string
	ExtraComment      string
	TranslatorComment string

	Translation Translation
	Locations   []Location
}

type decoder struct {
	d *xml.Decoder
}

func (dec *decoder) line() int {
	line, _ := dec.d.InputPos()
	return line
}

func (dec *decoder) wrap(err error) error {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return &Error{Line: se.Line, Msg: se.Msg}
	}
	if err == io.EOF {
		return &Error{Line: dec.line(), Msg: "unexpected end of document"}
	}
	return &Error{Line: dec.line(), Msg: err.Error()}
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

func attr(start xml.StartElement, name string) (string, bool) {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Decode reads a complete .ts document.
func Decode(r io.Reader) (*Document, error) {
	dec := &decoder{d: xml.NewDecoder(r)}
	dec.d.Strict = true
	dec.d.CharsetReader = charsetReader

	var root xml.StartElement
	for {
		tok, err := dec.d.Token()
		if err != nil {
			if err == io.EOF {
				return nil, &Error{Msg: "document has no root element"}
			}
			return nil, dec.wrap(err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			root = start
			break
		}
	}
	if root.Name.Local != "TS" {
		return nil, &Error{Line: dec.line(), Msg: fmt.Sprintf("unexpected root element <%s>", root.Name.Local)}
	}

	doc := &Document{}
	doc.Version, _ = attr(root, "version")
	doc.Language, _ = attr(root, "language")
	doc.SourceLanguage, _ = attr(root, "sourcelanguage")

	for {
		tok, err := dec.d.Token()
		if err != nil {
			return nil, dec.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "context" {
				if err := dec.d.Skip(); err != nil {
					return nil, dec.wrap(err)
				}
				continue
			}
			ctx, err := dec.context()
			if err != nil {
				return nil, err
			}
			doc.Contexts = append(doc.Contexts, *ctx)
		case xml.EndElement:
			// Anything after the root element is left unread.
			return doc, nil
		}
	}
}

func (dec *decoder) context() (*Context, error) {
	ctx := &Context{Line: dec.line()}
	for {
		tok, err := dec.d.Token()
		if err != nil {
			return nil, dec.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "name":
				ctx.Name, err = dec.text()
				ctx.HasName = true
			case "message":
				var msg *Message
				msg, err = dec.message(t)
				if err == nil {
					ctx.Messages = append(ctx.Messages, *msg)
				}
			default:
				err = dec.skip()
			}
			if err != nil {
				return nil, err
			}
		case xml.EndElement:
			return ctx, nil
		}
	}
}

func (dec *decoder) message(start xml.StartElement) (*Message, error) {
	msg := &Message{Line: dec.line()}
	if v, _ := attr(start, "numerus"); v == "yes" {
		msg.Numerus = true
	}
	for {
		tok, err := dec.d.Token()
		if err != nil {
			return nil, dec.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "location":
				var loc Location
				loc.File, _ = attr(t, "filename")
				loc.Line, _ = attr(t, "line")
				msg.Locations = append(msg.Locations, loc)
				err = dec.skip()
			case "source":
				msg.Source, err = dec.text()
				msg.HasSource = true
			case "oldsource":
				msg.OldSource, err = dec.text()
			case "comment":
				msg.Comment, err = dec.text()
			case "oldcomment":
				msg.OldComment, err = dec.text()
			case "extracomment":
				msg.ExtraComment, err = dec.text()
			case "translatorcomment":
				msg.TranslatorComment, err = dec.text()
			case "translation":
				msg.Translation.Type, _ = attr(t, "type")
				err = dec.translation(&msg.Translation)
			default:
				err = dec.skip()
			}
			if err != nil {
				return nil, err
			}
		case xml.EndElement:
			return msg, nil
		}
	}
}

func (dec *decoder) translation(tr *Translation) error {
	var sb strings.Builder
	var variant bool
	for {
		tok, err := dec.d.Token()
		if err != nil {
			return dec.wrap(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			if !variant {
				sb.Write(t)
			}
		case xml.StartElement:
			switch t.Name.Local {
			case "numerusform":
				form, err := dec.text()
				if err != nil {
					return err
				}
				tr.NumerusForms = append(tr.NumerusForms, form)
			case "lengthvariant":
				// The first variant is the primary translation.
				text, err := dec.text()
				if err != nil {
					return err
				}
				if !variant {
					variant = true
					sb.Reset()
					sb.WriteString(text)
				}
			case "byte":
				if !variant {
					sb.WriteString(byteValue(t))
				}
				if err := dec.skip(); err != nil {
					return err
				}
			default:
				if err := dec.skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			// With numerus forms the character data is only the
			// indentation between them.
			if len(tr.NumerusForms) == 0 {
				tr.Text = sb.String()
			}
			return nil
		}
	}
}

// text reads the character data of the current element. <byte value="x"/>
// escapes are decoded, other nested elements are skipped.
func (dec *decoder) text() (string, error) {
	var sb strings.Builder
	for {
		tok, err := dec.d.Token()
		if err != nil {
			return "", dec.wrap(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			if t.Name.Local == "byte" {
				sb.WriteString(byteValue(t))
			}
			if err := dec.skip(); err != nil {
				return "", err
			}
		case xml.EndElement:
			return sb.String(), nil
		}
	}
}

func (dec *decoder) skip() error {
	if err := dec.d.Skip(); err != nil {
		return dec.wrap(err)
	}
	return nil
}

// byteValue decodes the value attribute of a <byte> element: "x1b" is
// hexadecimal, anything else decimal.
func byteValue(start xml.StartElement) string {
	v, _ := attr(start, "value")
	var n uint64
	var err error
	if strings.HasPrefix(v, "x") {
		n, err = strconv.ParseUint(v[1:], 16, 32)
	} else {
		n, err = strconv.ParseUint(v, 10, 32)
	}
	if err != nil {
		return ""
	}
	return string(rune(n))
}
