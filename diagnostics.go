package linguist

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Logger is the logger used by package linguist. It discards everything
// until the host replaces it.
var Logger = zerolog.Nop()

// LookupEvent describes a lookup that did not resolve to a finished
// translation.
type LookupEvent struct {
	Module  string
	Key     Key
	Outcome Outcome
	// Locale is the locale of the unfinished translation that was used,
	// empty on NotFound.
	Locale string
	Chain  []string
	Plural bool
}

// Diagnostics receives lookup events. Implementations are called
// synchronously from lookups and must be safe for concurrent use.
type Diagnostics interface {
	Lookup(ev LookupEvent)
}

// DiagnosticsFunc adapts a function to the Diagnostics interface.
type DiagnosticsFunc func(ev LookupEvent)

func (f DiagnosticsFunc) Lookup(ev LookupEvent) {
	f(ev)
}

type multiDiagnostics []Diagnostics

func (m multiDiagnostics) Lookup(ev LookupEvent) {
	for _, d := range m {
		d.Lookup(ev)
	}
}

// MultiDiagnostics forwards events to every non nil sink in order.
func MultiDiagnostics(sinks ...Diagnostics) Diagnostics {
	var m multiDiagnostics
	for _, d := range sinks {
		if d != nil {
			m = append(m, d)
		}
	}
	return m
}

// LogDiagnostics logs a warning the first time a key misses a finished
// translation for a given module and preferred locale.
type LogDiagnostics struct {
	logger zerolog.Logger
	seen   sync.Map
}

// NewLogDiagnostics returns a sink logging to logger.
func NewLogDiagnostics(logger zerolog.Logger) *LogDiagnostics {
	return &LogDiagnostics{logger: logger}
}

func (d *LogDiagnostics) Lookup(ev LookupEvent) {
	var preferred string
	if len(ev.Chain) > 0 {
		preferred = ev.Chain[0]
	}
	id := strings.Join([]string{
		ev.Module, preferred, ev.Outcome.String(),
		ev.Key.Context, ev.Key.Source, ev.Key.Disambiguation,
	}, "\x00")
	if _, loaded := d.seen.LoadOrStore(id, struct{}{}); loaded {
		return
	}

	e := d.logger.Warn().
		Str("module", ev.Module).
		Str("locale", preferred).
		Str("context", ev.Key.Context).
		Str("source", ev.Key.Source)
	if ev.Key.Disambiguation != "" {
		e = e.Str("disambiguation", ev.Key.Disambiguation)
	}
	if ev.Outcome == ResolvedUnfinished {
		e.Str("from", ev.Locale).Msg("Using unfinished translation")
		return
	}
	e.Msg("Missing translation")
}
