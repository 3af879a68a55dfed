package linguist

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedDocument = errors.New("malformed document")
	ErrDuplicateKey      = errors.New("duplicate key")
)

// ParseErrorKind classifies catalog parse failures.
type ParseErrorKind int

const (
	MalformedDocument ParseErrorKind = iota
	DuplicateKey
)

func (k ParseErrorKind) String() string {
	switch k {
	case MalformedDocument:
		return "malformed document"
	case DuplicateKey:
		return "duplicate key"
	}
	return fmt.Sprintf("ParseErrorKind(%d)", int(k))
}

// ParseError is returned when a catalog cannot be loaded. A catalog that
// fails to parse is rejected as a whole.
type ParseError struct {
	Kind ParseErrorKind
	// Line is the line in the document where the problem was detected,
	// or 0 if unknown.
	Line int
	// Key is set for DuplicateKey errors.
	Key Key
	Msg string
}

func (e *ParseError) Error() string {
	var prefix string
	if e.Line > 0 {
		prefix = fmt.Sprintf("line %d: ", e.Line)
	}
	if e.Kind == DuplicateKey {
		return fmt.Sprintf("%s%v: %q", prefix, e.Kind, e.Key.String())
	}
	return fmt.Sprintf("%s%v: %s", prefix, e.Kind, e.Msg)
}

func (e *ParseError) Unwrap() error {
	if e.Kind == DuplicateKey {
		return ErrDuplicateKey
	}
	return ErrMalformedDocument
}

func malformed(line int, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: MalformedDocument, Line: line, Msg: fmt.Sprintf(format, args...)}
}
