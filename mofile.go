package linguist

import (
	"bytes"
	"encoding/binary"
	"os"
	"strings"

	"github.com/snapcore/go-linguist/pluralforms"
)

const leMagic = 0x950412de
const beMagic = 0xde120495

// contextSeparator joins msgctxt and msgid in MO keys.
const contextSeparator = "\x04"

type moHeader struct {
	Magic          uint32
	Version        uint32
	NumStrings     uint32
	OrigTabOffset  uint32
	TransTabOffset uint32
	HashTabSize    uint32
	HashTabOffset  uint32
}

func (h moHeader) majorVersion() uint32 {
	return h.Version >> 16
}

func (h moHeader) minorVersion() uint32 {
	return h.Version & 0xffff
}

type moReader struct {
	data     []byte
	order    binary.ByteOrder
	origTab  []byte
	transTab []byte
}

func (r *moReader) str(table []byte, idx int) []byte {
	strLen := r.order.Uint32(table[8*idx:])
	strOffset := r.order.Uint32(table[8*idx+4:])
	return r.data[strOffset : strOffset+strLen]
}

func validateStringTable(data []byte, table []byte, numStrings int, order binary.ByteOrder) error {
	for i := 0; i < numStrings; i++ {
		strLen := order.Uint32(table[8*i:])
		strOffset := order.Uint32(table[8*i+4:])
		if uint64(strLen)+uint64(strOffset) > uint64(len(data)) {
			return malformed(0, "string %d data (len=%x, offset=%x) is out of bounds", i, strLen, strOffset)
		}
	}
	return nil
}

func validateHashTable(table []byte, numStrings int, order binary.ByteOrder) error {
	for i := 0; i < len(table)/4; i++ {
		strIndex := order.Uint32(table[4*i:])
		// hash entries are either zero or a string index
		// incremented by one
		if int(strIndex) >= numStrings+1 {
			return malformed(0, "hash table is corrupt")
		}
	}
	return nil
}

func tableBounds(data []byte, offset, numStrings uint32, width uint64) bool {
	return uint64(offset)+width*uint64(numStrings) <= uint64(len(data))
}

// moInfo holds the interesting fields of the MO header entry.
type moInfo struct {
	language    string
	pluralForms string
}

func parseMOInfo(info string) moInfo {
	var mi moInfo
	for _, line := range strings.Split(info, "\n") {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "language":
			mi.language = strings.TrimSpace(v)
		case "plural-forms":
			mi.pluralForms = strings.TrimSpace(v)
		}
	}
	return mi
}

// ParseMO parses a gettext binary catalog for module. Fuzzy entries are
// never compiled into MO files, so every message with text is Finished.
// The locale comes from the Language header, or from fallbackLocale when
// the header is absent.
func ParseMO(file *os.File, module, fallbackLocale string) (*Catalog, error) {
	m, err := openMapping(file)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	return decodeMO(m.data, module, fallbackLocale)
}

func decodeMO(data []byte, module, fallbackLocale string) (*Catalog, error) {
	var header moHeader
	headerSize := binary.Size(&header)
	if len(data) < headerSize {
		return nil, malformed(0, "message catalogue is too short")
	}

	var order binary.ByteOrder = binary.LittleEndian
	magic := order.Uint32(data)
	switch magic {
	case leMagic:
		// nothing
	case beMagic:
		order = binary.BigEndian
	default:
		return nil, malformed(0, "wrong magic: %x", magic)
	}
	if err := binary.Read(bytes.NewReader(data[:headerSize]), order, &header); err != nil {
		return nil, malformed(0, "cannot read header: %v", err)
	}
	if header.majorVersion() != 0 && header.majorVersion() != 1 {
		return nil, malformed(0, "unsupported version: %d.%d", header.majorVersion(), header.minorVersion())
	}
	numStrings := int(header.NumStrings)
	if numStrings < 0 || uint32(numStrings) != header.NumStrings {
		return nil, malformed(0, "too many strings in catalog")
	}

	if !tableBounds(data, header.OrigTabOffset, header.NumStrings, 8) {
		return nil, malformed(0, "original strings table out of bounds")
	}
	origTab := data[header.OrigTabOffset : header.OrigTabOffset+8*header.NumStrings]
	if err := validateStringTable(data, origTab, numStrings, order); err != nil {
		return nil, err
	}
	if !tableBounds(data, header.TransTabOffset, header.NumStrings, 8) {
		return nil, malformed(0, "translated strings table out of bounds")
	}
	transTab := data[header.TransTabOffset : header.TransTabOffset+8*header.NumStrings]
	if err := validateStringTable(data, transTab, numStrings, order); err != nil {
		return nil, err
	}
	if header.HashTabSize > 2 {
		if !tableBounds(data, header.HashTabOffset, header.HashTabSize, 4) {
			return nil, malformed(0, "hash table out of bounds")
		}
		hashTab := data[header.HashTabOffset : header.HashTabOffset+4*header.HashTabSize]
		if err := validateHashTable(hashTab, numStrings, order); err != nil {
			return nil, err
		}
	}

	r := &moReader{data: data, order: order, origTab: origTab, transTab: transTab}
	info := CatalogInfo{Module: module, Locale: fallbackLocale, Version: "mo"}
	var messages []Message
	for i := 0; i < numStrings; i++ {
		id := string(r.str(origTab, i))
		str := string(r.str(transTab, i))
		if id == "" {
			mi := parseMOInfo(str)
			if mi.language != "" {
				info.Locale = mi.language
			}
			if mi.pluralForms != "" {
				rule, err := pluralforms.ParseHeader(mi.pluralForms)
				if err != nil {
					return nil, malformed(0, "invalid Plural-Forms header: %v", err)
				}
				info.PluralRule = &rule
			}
			continue
		}
		messages = append(messages, moMessage(id, str))
	}
	if info.Locale == "" {
		return nil, malformed(0, "catalogue has no Language header")
	}
	return NewCatalog(info, messages)
}

func moMessage(id, str string) Message {
	var msg Message
	if ctx, rest, ok := strings.Cut(id, contextSeparator); ok {
		msg.Context = ctx
		id = rest
	}
	// Plural entries are "singular\x00plural" / "form0\x00form1...".
	if singular, _, ok := strings.Cut(id, "\x00"); ok {
		msg.Source = singular
		msg.PluralForms = strings.Split(str, "\x00")
		msg.Translation = msg.PluralForms[0]
	} else {
		msg.Source = id
		msg.Translation = str
	}
	msg.Status = Finished
	if !msg.hasText() {
		msg.Status = Unfinished
	}
	return msg
}
